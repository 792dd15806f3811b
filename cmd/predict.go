package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/routeopt/app"
	"github.com/kilianp07/routeopt/config"
	"github.com/kilianp07/routeopt/core/model"
)

var (
	predictDistance float64
	predictTraffic  string
	predictWeather  string
	predictDriver   string
	predictVehicle  string
	predictFuel     float64
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Run a one-shot route optimization and print the result",
	RunE:  predict,
}

func init() {
	predictCmd.Flags().Float64Var(&predictDistance, "distance", 0, "route distance in km")
	predictCmd.Flags().StringVar(&predictTraffic, "traffic", "", "expected traffic: low, moderate, heavy or severe")
	predictCmd.Flags().StringVar(&predictWeather, "weather", "", "expected weather: clear, rain, snow or fog")
	predictCmd.Flags().StringVar(&predictDriver, "driver", "", "driver identifier")
	predictCmd.Flags().StringVar(&predictVehicle, "vehicle", "", "vehicle identifier")
	predictCmd.Flags().Float64Var(&predictFuel, "fuel-price", 0, "fuel price per liter in EUR")
	_ = predictCmd.MarkFlagRequired("distance")
	rootCmd.AddCommand(predictCmd)
}

func predict(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	// A one-shot prediction never reconciles, so the broker is not needed.
	cfg.MQTT.Enabled = false

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	res, err := svc.Engine.Optimize(model.RouteRequest{
		DistanceKm:   predictDistance,
		Traffic:      model.TrafficLevel(predictTraffic),
		Weather:      model.WeatherKind(predictWeather),
		DriverID:     predictDriver,
		VehicleID:    predictVehicle,
		FuelPriceEUR: predictFuel,
	})
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
