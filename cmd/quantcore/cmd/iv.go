package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/quantcore/pricing"
)

var ivCmd = &cobra.Command{
	Use:   "iv",
	Short: "Solve implied volatility from a market option price",
	Long: `IV inverts the Black-Scholes price via Newton-Raphson. When the
solver cannot converge (deep ITM/OTM or near expiry) it says so; use a
market-quoted IV in that case.

Example:
  quantcore iv --spot 21500 --strike 21600 --days 7 --rate 0.06 --price 95.50`,
	RunE: runIV,
}

var ivPrice float64

func init() {
	rootCmd.AddCommand(ivCmd)

	ivCmd.Flags().Float64Var(&optSpot, "spot", 0, "underlying spot price (required)")
	ivCmd.Flags().Float64Var(&optStrike, "strike", 0, "strike price (required)")
	ivCmd.Flags().Float64Var(&optDays, "days", 0, "calendar days to expiry (required)")
	ivCmd.Flags().Float64Var(&optRate, "rate", 0.06, "risk-free rate (0.06 = 6%)")
	ivCmd.Flags().BoolVar(&optPut, "put", false, "solve for a put instead of a call")
	ivCmd.Flags().Float64Var(&ivPrice, "price", 0, "observed market price (required)")

	ivCmd.MarkFlagRequired("spot")
	ivCmd.MarkFlagRequired("strike")
	ivCmd.MarkFlagRequired("days")
	ivCmd.MarkFlagRequired("price")
}

func runIV(cmd *cobra.Command, args []string) error {
	in := optionInputs()

	vol, err := pricing.ImpliedVol(in, ivPrice)
	if err != nil {
		var conv *pricing.ConvergenceError
		if errors.As(err, &conv) {
			return fmt.Errorf("solver did not converge (%w); fall back to a quoted IV", err)
		}
		return err
	}

	fmt.Printf("Implied volatility: %.4f (%.2f%%)\n", vol, vol*100)
	return nil
}
