package main

import (
	"fmt"

	"github.com/layer-3/paygate/core"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	payPhone     string
	payAmount    string
	payReference string
)

var payCmd = &cobra.Command{
	Use:   "pay",
	Short: "Initiate a single payment and print the provider response",
	Long: `Initiate a single payment using the configured provider credentials.

Example:
  paygate pay --phone 0771234567 --amount 500 --reference INV-1`,
	RunE: runPay,
}

func init() {
	payCmd.Flags().StringVar(&payPhone, "phone", "", "subscriber phone number (MSISDN)")
	payCmd.Flags().StringVar(&payAmount, "amount", "", "amount to collect")
	payCmd.Flags().StringVar(&payReference, "reference", "", "payment reference")
}

func runPay(cmd *cobra.Command, args []string) error {
	req := core.PaymentRequest{
		PhoneNumber: payPhone,
		Reference:   payReference,
	}
	if payAmount != "" {
		amount, err := decimal.NewFromString(payAmount)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", payAmount, err)
		}
		req.Amount = decimal.NewNullDecimal(amount)
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.payments.Initiate(cmd.Context(), req)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(res))
	return nil
}
