package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/routeopt/app"
	"github.com/kilianp07/routeopt/config"
)

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Print learning insights and fleet analytics from the persisted state",
	RunE:  insights,
}

func init() {
	rootCmd.AddCommand(insightsCmd)
}

func insights(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.MQTT.Enabled = false

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	out := struct {
		Learning any `json:"learning"`
		Fleet    any `json:"fleet"`
	}{
		Learning: svc.Engine.GetLearningInsights(),
		Fleet:    svc.Engine.GetFleetAnalytics(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
