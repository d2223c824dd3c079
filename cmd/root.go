package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "kb-gateway",
	Short: "Knowledge base retrieval and answer synthesis gateway",
	Long: `kb-gateway retrieves semantically similar knowledge base entries for an
incoming problem description and synthesizes a grounded answer with citations
and a confidence score.

It maintains a shared common knowledge base partitioned by issue category and
a private knowledge base per tenant, each in its own isolated vector
collection.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config/config.yaml", "config file")
}
