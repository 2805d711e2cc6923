package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/HIMANADH789/careworkers/internal/identity"
	"github.com/HIMANADH789/careworkers/internal/repos"
	"github.com/HIMANADH789/careworkers/internal/services"
	"github.com/HIMANADH789/careworkers/internal/storage"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()
		return storage.Migrate(a.db, a.lg.Named("migrate"))
	},
}

var perimeterCmd = &cobra.Command{
	Use:   "perimeter",
	Short: "Inspect or change the allowed work perimeter",
}

var perimeterShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored perimeter as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		p, err := repos.NewPerimeterRepo(a.db, a.lg).Get(cmd.Context())
		if err != nil {
			return err
		}
		if p == nil {
			fmt.Fprintln(os.Stderr, "no perimeter configured")
			return nil
		}
		return printJSON(p)
	},
}

var setFlags struct {
	name     string
	lat      float64
	lng      float64
	radiusKm float64
	actor    uint
}

var perimeterSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Create or replace the perimeter",
	Long: `Create or replace the singleton perimeter.

Running servers pick the change up on their next refresh.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		workers := repos.NewWorkersRepo(a.db, a.lg)
		actor, err := workers.Get(cmd.Context(), setFlags.actor)
		if err != nil {
			return err
		}

		svc := services.NewPerimeterService(repos.NewPerimeterRepo(a.db, a.lg), nil, a.lg)
		saved, err := svc.Set(cmd.Context(), identity.FromWorker(actor), services.PerimeterInput{
			Name:      setFlags.name,
			CenterLat: setFlags.lat,
			CenterLng: setFlags.lng,
			RadiusKm:  setFlags.radiusKm,
		})
		if err != nil {
			return err
		}
		return printJSON(saved)
	},
}

func init() {
	f := perimeterSetCmd.Flags()
	f.StringVar(&setFlags.name, "name", "", "perimeter display name")
	f.Float64Var(&setFlags.lat, "lat", 0, "center latitude in degrees")
	f.Float64Var(&setFlags.lng, "lng", 0, "center longitude in degrees")
	f.Float64Var(&setFlags.radiusKm, "radius-km", 0, "radius in kilometers")
	f.UintVar(&setFlags.actor, "actor", 0, "worker id recorded as the creator")
	for _, name := range []string{"name", "lat", "lng", "radius-km", "actor"} {
		_ = perimeterSetCmd.MarkFlagRequired(name)
	}

	perimeterCmd.AddCommand(perimeterShowCmd, perimeterSetCmd)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
