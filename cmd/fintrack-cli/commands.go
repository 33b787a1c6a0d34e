package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"fintrack/internal/analytics"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/csvio"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

type rootOptions struct {
	dbPath string
	logger *log.Logger
}

func newRootCmd(logger *log.Logger) *cobra.Command {
	opts := &rootOptions{logger: logger}
	cmd := &cobra.Command{
		Use:           "fintrack-cli",
		Short:         "Offline tools for fintrack data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", config.Load().SQLiteDBPath, "Path to the SQLite database")

	cmd.AddCommand(newAnalyzeCmd(opts), newImportCmd(opts), newExportCmd(opts))
	return cmd
}

func (o *rootOptions) openRepository() (*storage.SQLiteRepository, error) {
	repo, err := storage.NewSQLiteRepository(o.dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", o.dbPath, err)
	}
	return repo, nil
}

type analyzeCmd struct {
	*rootOptions
	file   string
	userID int64
	year   int
	month  int
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	ac := &analyzeCmd{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Print aggregates, forecast and recommendations as JSON",
		Long: "Analyze transactions from a CSV file (--file) or, without --file, " +
			"the user's transactions stored in the SQLite database.",
		RunE: ac.run,
	}
	cmd.Flags().StringVar(&ac.file, "file", "", "CSV file with date,amount,type,category,description columns")
	cmd.Flags().Int64Var(&ac.userID, "user", 1, "User whose transactions are analyzed")
	cmd.Flags().IntVar(&ac.year, "year", 0, "Restrict to one year")
	cmd.Flags().IntVar(&ac.month, "month", 0, "Restrict to one month (requires --year)")
	return cmd
}

func (ac *analyzeCmd) run(cmd *cobra.Command, _ []string) error {
	th := config.Load().Thresholds()
	if err := th.Validate(); err != nil {
		return err
	}
	filter := core.Filter{UserID: ac.userID, Year: ac.year, Month: ac.month}
	if err := filter.Validate(); err != nil {
		return err
	}

	txs, err := ac.load(cmd, filter)
	if err != nil {
		return err
	}

	res := analytics.NewAnalyzer(th).Analyze(txs)
	ac.logger.Debug("Analysis complete",
		log.FieldUserID, ac.userID,
		log.FieldCount, len(txs),
		log.FieldMethodName, res.Forecast.Method)
	return writeJSON(cmd.OutOrStdout(), res)
}

func (ac *analyzeCmd) load(cmd *cobra.Command, filter core.Filter) ([]core.Transaction, error) {
	if ac.file == "" {
		repo, err := ac.openRepository()
		if err != nil {
			return nil, err
		}
		defer repo.Close()
		return repo.ListTransactions(cmd.Context(), filter)
	}

	f, err := os.Open(ac.file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	imported, err := csvio.Read(f, ac.userID)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ac.file, err)
	}
	if imported.Skipped > 0 {
		ac.logger.Warn("Skipped invalid rows", log.FieldSkipped, imported.Skipped)
	}

	txs := imported.Transactions[:0]
	for _, t := range imported.Transactions {
		if filter.Match(t) {
			txs = append(txs, t)
		}
	}
	return txs, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type importCmd struct {
	*rootOptions
	file   string
	userID int64
}

func newImportCmd(root *rootOptions) *cobra.Command {
	ic := &importCmd{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load a CSV file into the SQLite database",
		RunE:  ic.run,
	}
	cmd.Flags().StringVar(&ic.file, "file", "", "CSV file to import")
	cmd.Flags().Int64Var(&ic.userID, "user", 0, "Owner of the imported transactions")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func (ic *importCmd) run(cmd *cobra.Command, _ []string) error {
	if ic.userID <= 0 {
		return fmt.Errorf("invalid user %d", ic.userID)
	}
	f, err := os.Open(ic.file)
	if err != nil {
		return err
	}
	defer f.Close()

	repo, err := ic.openRepository()
	if err != nil {
		return err
	}
	defer repo.Close()

	summary, err := services.NewTransactionService(repo, nil, nil).Import(cmd.Context(), ic.userID, f)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d transactions, skipped %d rows.\n", summary.Imported, summary.Skipped)
	return err
}

type exportCmd struct {
	*rootOptions
	out    string
	userID int64
}

func newExportCmd(root *rootOptions) *cobra.Command {
	ec := &exportCmd{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a user's transactions as CSV, newest first",
		RunE:  ec.run,
	}
	cmd.Flags().StringVar(&ec.out, "out", "", "Output file (default stdout)")
	cmd.Flags().Int64Var(&ec.userID, "user", 0, "User to export")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func (ec *exportCmd) run(cmd *cobra.Command, _ []string) error {
	repo, err := ec.openRepository()
	if err != nil {
		return err
	}
	defer repo.Close()

	w := cmd.OutOrStdout()
	if ec.out != "" {
		f, err := os.Create(ec.out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return services.NewTransactionService(repo, nil, nil).Export(cmd.Context(), ec.userID, w)
}
