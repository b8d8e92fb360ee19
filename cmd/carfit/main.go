package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Глобальные флаги, общие для всех команд.
var (
	configPath string
	envFile    string
)

var rootCmd = &cobra.Command{
	Use:   "carfit",
	Short: "carfit - vehicle recommendations by budget and usage needs",
	Long: `carfit ranks the vehicles of a catalog for a buyer's budget, usage needs
and optional brand, transmission and fuel filters. It runs as an HTTP service
(serve) or ranks once from the command line (rank).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "/etc/carfit/config.yaml", "configuration file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "file with environment overrides")
	rootCmd.AddCommand(newServeCmd(), newRankCmd())
}

// При ошибках на этапе загрузки конфигурации, чтения каталога или инициализации компонентов
// приложение завершается с кодом 1.
func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
