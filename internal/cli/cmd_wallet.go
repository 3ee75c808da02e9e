package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"coursehub/internal/api/transactions"
)

func balanceCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show your campus-card balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := rt.app.Transactions.Balance(cmd.Context())
			if err != nil {
				return err
			}
			p := rt.printer()
			return p.emit(b, func() {
				p.fields(
					[2]string{"Balance", money(b.Balance)},
					[2]string{"Spent today", money(b.DailySpent)},
					[2]string{"Daily limit", money(b.DailyLimit)},
					[2]string{"Spent this month", money(b.MonthlySpent)},
				)
			})
		},
	}
	return routed(cmd, "/transactions/balance")
}

func transferCmd(rt *runtime) *cobra.Command {
	var t transactions.Transfer
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Send money to another student",
		Long: `Send money to another student.

The payment password is read from stdin when --payment-password is omitted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if t.PaymentPassword == "" {
				t.PaymentPassword = rt.readLine()
			}
			tx, err := rt.app.Transactions.Transfer(cmd.Context(), t)
			if err != nil {
				return err
			}
			return rt.printer().emit(tx, func() {
				rt.printer().line("Transferred %s to %s (transaction %d, fee %s)",
					money(tx.Amount), tx.RecipientID, tx.TransactionID, money(tx.TransactionFee))
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&t.RecipientID, "to", "", "Recipient student id")
	f.Float64Var(&t.Amount, "amount", 0, "Amount")
	f.StringVar(&t.Description, "note", "", "Note for the recipient")
	f.StringVar(&t.PaymentPassword, "payment-password", "", "Payment password")
	return routed(cmd, "/transactions/transfer")
}

func historyCmd(rt *runtime) *cobra.Command {
	var f transactions.HistoryFilter
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List your transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, err := rt.app.Transactions.History(cmd.Context(), f)
			if err != nil {
				return err
			}
			p := rt.printer()
			return p.emit(page, func() {
				rows := make([][]string, 0, len(page.Items))
				for _, tx := range page.Items {
					rows = append(rows, []string{
						strconv.FormatInt(tx.TransactionID, 10), tx.SenderID, tx.RecipientID,
						money(tx.Amount), tx.Status, tx.CreatedAt,
					})
				}
				p.table([]string{"ID", "FROM", "TO", "AMOUNT", "STATUS", "CREATED"}, rows)
				p.line("page %d of %d, %d transactions", page.Page, page.TotalPages, page.Total)
			})
		},
	}
	cmd.Flags().StringVar(&f.Direction, "direction", "", "sent or received")
	cmd.Flags().StringVar(&f.Status, "status", "", "Transaction status")
	bindPage(cmd, &f.PageQuery)
	return routed(cmd, "/transactions/history")
}

func rechargeCmd(rt *runtime) *cobra.Command {
	var (
		studentID string
		amount    float64
	)
	cmd := &cobra.Command{
		Use:   "recharge",
		Short: "Credit a student's balance (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tx, err := rt.app.Transactions.Recharge(cmd.Context(), studentID, amount)
			if err != nil {
				return err
			}
			return rt.printer().emit(tx, func() {
				rt.printer().line("Recharged %s to %s (transaction %d)", money(tx.Amount), tx.RecipientID, tx.TransactionID)
			})
		},
	}
	cmd.Flags().StringVar(&studentID, "student", "", "Student id")
	cmd.Flags().Float64Var(&amount, "amount", 0, "Amount")
	return routed(cmd, "/transactions/recharge")
}
