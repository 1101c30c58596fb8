package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/quantcore/market"
	"github.com/rustyeddy/quantcore/pricing"
)

var greeksCmd = &cobra.Command{
	Use:   "greeks",
	Short: "Compute Black-Scholes Greeks for a European option",
	Long: `Greeks prices a European option and prints its sensitivities.
Theta is per calendar day; vega and rho are per 1% move.

Example:
  quantcore greeks --spot 21500 --strike 21500 --days 7 --vol 0.18 --rate 0.06`,
	RunE: runGreeks,
}

var (
	optSpot   float64
	optStrike float64
	optDays   float64
	optVol    float64
	optRate   float64
	optPut    bool
)

func init() {
	rootCmd.AddCommand(greeksCmd)

	greeksCmd.Flags().Float64Var(&optSpot, "spot", 0, "underlying spot price (required)")
	greeksCmd.Flags().Float64Var(&optStrike, "strike", 0, "strike price (required)")
	greeksCmd.Flags().Float64Var(&optDays, "days", 0, "calendar days to expiry (required)")
	greeksCmd.Flags().Float64Var(&optVol, "vol", 0.18, "volatility (0.18 = 18%)")
	greeksCmd.Flags().Float64Var(&optRate, "rate", 0.06, "risk-free rate (0.06 = 6%)")
	greeksCmd.Flags().BoolVar(&optPut, "put", false, "price a put instead of a call")

	greeksCmd.MarkFlagRequired("spot")
	greeksCmd.MarkFlagRequired("strike")
	greeksCmd.MarkFlagRequired("days")
}

func optionInputs() pricing.Inputs {
	kind := market.Call
	if optPut {
		kind = market.Put
	}
	return pricing.Inputs{
		Spot:         optSpot,
		Strike:       optStrike,
		TimeToExpiry: optDays / 365,
		Vol:          optVol,
		Rate:         optRate,
		Kind:         kind,
	}
}

func runGreeks(cmd *cobra.Command, args []string) error {
	in := optionInputs()

	g, err := pricing.Compute(in)
	if err != nil {
		return err
	}

	fmt.Printf("%s %s %.0f @ spot %.2f, %.1f days, vol %.1f%%\n",
		in.Moneyness(), in.Kind, in.Strike, in.Spot, optDays, in.Vol*100)
	fmt.Printf("Price: %10.4f\n", g.Price)
	fmt.Printf("Delta: %10.4f\n", g.Delta)
	fmt.Printf("Gamma: %10.6f\n", g.Gamma)
	fmt.Printf("Theta: %10.4f per day\n", g.Theta)
	fmt.Printf("Vega:  %10.4f per 1%% vol\n", g.Vega)
	fmt.Printf("Rho:   %10.4f per 1%% rate\n", g.Rho)
	return nil
}
