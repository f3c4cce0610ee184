package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Mirandateresa/malicious-url-detector/internal/audit"
	"github.com/Mirandateresa/malicious-url-detector/internal/service"
)

var (
	trainKernel string
	trainC      float64
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Retrain the model metrics for a kernel",
	Long:  "Regenerate the model metrics for the given kernel and persist them to the configured state store.",
	RunE:  runTrain,
}

func init() {
	trainCmd.Flags().StringVar(&trainKernel, "kernel", "", "Kernel: rbf, linear, poly or sigmoid (default: config training.default_kernel)")
	trainCmd.Flags().Float64Var(&trainC, "C", 0, "Regularization parameter (default: config training.default_c)")
}

func runTrain(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if trainKernel == "" {
		trainKernel = cfg.Training.DefaultKernel
	}
	if !cmd.Flags().Changed("C") {
		trainC = cfg.Training.DefaultC
	}

	logger := newLogger(cfg, "train")
	mgr, st, err := openModel(cmd.Context(), cfg, false, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	svc := service.New(mgr, audit.NopLogger(), service.Options{Logger: logger})
	res, err := svc.Train(cmd.Context(), trainKernel, trainC)
	if err != nil {
		return fmt.Errorf("training: %w", err)
	}
	if !res.Applied {
		fmt.Fprintf(os.Stderr, "  kernel %q is not known; metrics unchanged\n", trainKernel)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
