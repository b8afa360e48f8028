package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/trade-analytics-api/internal/gamma"
	"github.com/dgnsrekt/trade-analytics-api/internal/marketdata"
)

func gammaCmd() *cobra.Command {
	var spotOverride float64
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "gamma CHAIN_FILE",
		Short: "Compute gamma exposure from a recorded chain snapshot",
		Long: `Compute dealer gamma exposure from a chain snapshot file.

The file holds one OptionChain JSON object and may be gzip (.json.gz) or
zstd (.json.zst) compressed.

Examples:
  # Analyze a recorded SPY chain
  analyze gamma chains/SPY.json.gz

  # Override the spot price from the snapshot
  analyze gamma chains/SPY.json --spot 433.50`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chain, err := marketdata.LoadChainFile(args[0])
			if err != nil {
				return err
			}

			if len(chain.Calls) == 0 || len(chain.Puts) == 0 {
				return fmt.Errorf("%s: %w", chain.Symbol, marketdata.ErrInsufficientData)
			}

			spot := chain.Spot
			if spotOverride > 0 {
				spot = spotOverride
			}

			logger.Debug("loaded chain",
				zap.String("symbol", chain.Symbol),
				zap.Float64("spot", spot),
				zap.Int("calls", len(chain.Calls)),
				zap.Int("puts", len(chain.Puts)),
			)

			exposure := gamma.Compute(chain.Symbol, spot, chain.Calls, chain.Puts)

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(exposure)
			}

			printExposure(exposure)
			return nil
		},
	}

	cmd.Flags().Float64Var(&spotOverride, "spot", 0, "override the snapshot spot price")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")

	return cmd
}

func printExposure(e *gamma.Exposure) {
	fmt.Printf("%s @ %.2f\n\n", e.Symbol, e.CurrentPrice)
	fmt.Printf("Max Pain:     %.2f\n", e.MaxPain)
	fmt.Printf("Gamma Flip:   %.2f\n", e.GammaFlip)
	fmt.Printf("Call Wall:    %.2f\n", e.CallWall)
	fmt.Printf("Put Wall:     %.2f\n", e.PutWall)
	fmt.Printf("Regime:       %s\n", e.Regime)
	fmt.Printf("Dealers:      %s\n", e.DealerPositioning)
	fmt.Printf("Exp. Move:    %.2f daily / %.2f weekly\n", e.ExpectedDailyMove, e.ExpectedWeeklyMove)

	if len(e.Resistance) > 0 {
		fmt.Println("\nResistance:")
		for _, lv := range e.Resistance {
			fmt.Printf("  %.2f  (call OI %d, net gamma %.0f, %s)\n",
				lv.Strike, lv.CallOpenInterest, lv.NetGamma, lv.Significance)
		}
	}
	if len(e.Support) > 0 {
		fmt.Println("\nSupport:")
		for _, lv := range e.Support {
			fmt.Printf("  %.2f  (put OI %d, net gamma %.0f, %s)\n",
				lv.Strike, lv.PutOpenInterest, lv.NetGamma, lv.Significance)
		}
	}

	fmt.Printf("\n%s\n%s\n", e.Summary, e.TradingImplication)
}
