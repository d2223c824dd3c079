package cmd

import (
	"encoding/json"
	"log"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/opsmind-ai/kb-gateway/config"
	"github.com/opsmind-ai/kb-gateway/service"
	"github.com/opsmind-ai/kb-gateway/types"
)

// seedKBCmd represents the seed-kb command
var seedKBCmd = &cobra.Command{
	Use:   "seed-kb",
	Short: "Populate the common knowledge base with example IT issues",
	Long: `Populates the common knowledge base with a bundled set of example IT
issues, or with entries read from a JSON file when --file is given. The file
must contain an array of knowledge base entries.`,
	Run: func(cmd *cobra.Command, args []string) {
		filePath, _ := cmd.Flags().GetString("file")

		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		logger, err := buildLogger(cfg.LogLevel)
		if err != nil {
			log.Fatalf("Failed to build logger: %v", err)
		}
		defer logger.Sync()

		store, err := buildVectorStore(cfg, logger)
		if err != nil {
			logger.Fatal("failed to initialize vector store", zap.Error(err))
		}
		embedder, err := buildEmbedder(cmd.Context(), cfg)
		if err != nil {
			logger.Fatal("failed to initialize embedding provider", zap.Error(err))
		}
		kbService := service.NewKnowledgeBaseService(store, embedder, logger)

		entries := seedEntries
		if filePath != "" {
			data, err := os.ReadFile(filePath)
			if err != nil {
				logger.Fatal("failed to read seed file", zap.Error(err))
			}
			entries = nil
			if err := json.Unmarshal(data, &entries); err != nil {
				logger.Fatal("failed to parse seed file", zap.Error(err))
			}
		}
		for _, entry := range entries {
			entry.KBType = types.KBTypeCommon
		}

		ids, err := kbService.AddEntries(cmd.Context(), entries)
		if err != nil {
			logger.Fatal("failed to seed knowledge base", zap.Error(err))
		}
		logger.Info("seeded common knowledge base", zap.Int("entries", len(ids)))
	},
}

func init() {
	rootCmd.AddCommand(seedKBCmd)
	seedKBCmd.Flags().StringP("file", "f", "", "JSON file with knowledge base entries")
}

var seedEntries = []*types.KnowledgeBaseEntry{
	{
		Title:             "PostgreSQL Connection Pool Exhaustion",
		Phenomenon:        "Error: FATAL: remaining connection slots are reserved for non-replication superuser connections. Application unable to connect to database.",
		RootCauseAnalysis: "The PostgreSQL database has reached its maximum connection limit. This typically occurs when connection pooling is not properly configured, connections are not being closed properly, or the max_connections setting is too low for the application load.",
		Solutions: []string{
			"Increase max_connections in postgresql.conf (requires restart)",
			"Implement connection pooling (e.g., PgBouncer) to reduce actual database connections",
			"Review application code to ensure all database connections are properly closed",
			"Monitor active connections using: SELECT count(*) FROM pg_stat_activity;",
		},
		Category: types.CategoryDatabase,
		Tags:     []string{"postgresql", "connection", "pool", "database"},
	},
	{
		Title:             "Kubernetes Pod CrashLoopBackOff",
		Phenomenon:        "Pod status shows CrashLoopBackOff. kubectl logs shows: Error: failed to start application, exit code 1",
		RootCauseAnalysis: "The container is crashing immediately after starting. Common causes include application startup errors, missing environment variables, incorrect resource limits, health check failures, or dependency issues.",
		Solutions: []string{
			"Check pod logs: kubectl logs <pod-name>",
			"Verify environment variables are set correctly: kubectl describe pod <pod-name>",
			"Check resource limits and requests are appropriate",
			"Verify health check endpoints are responding correctly",
		},
		Category: types.CategoryKubernetes,
		Tags:     []string{"kubernetes", "pod", "crashloop", "container"},
	},
	{
		Title:             "AWS S3 403 Forbidden Error",
		Phenomenon:        "Error: AccessDenied when calling the PutObject operation. 403 Forbidden response from S3 API.",
		RootCauseAnalysis: "The IAM role or user credentials don't have sufficient permissions to perform the S3 operation. This could be due to missing IAM policies, incorrect bucket policies, or incorrect resource ARN in the policy.",
		Solutions: []string{
			"Verify IAM user/role has s3:PutObject permission for the bucket",
			"Check bucket policy allows the operation from the IAM principal",
			"Review CloudTrail logs for detailed access denial reasons",
		},
		Category: types.CategoryCloudInfra,
		Tags:     []string{"aws", "s3", "iam", "permissions", "403"},
	},
	{
		Title:             "MySQL Deadlock Error",
		Phenomenon:        "Error: Deadlock found when trying to get lock; try restarting transaction. (1213)",
		RootCauseAnalysis: "Two or more transactions are waiting for each other to release locks, creating a circular dependency. This often happens with concurrent transactions accessing the same rows in different orders, or long-running transactions holding locks.",
		Solutions: []string{
			"Retry the transaction (MySQL automatically retries once)",
			"Ensure transactions access tables in a consistent order",
			"Reduce transaction duration by moving non-critical operations outside transactions",
			"Add appropriate indexes to reduce lock contention",
		},
		Category: types.CategoryDatabase,
		Tags:     []string{"mysql", "deadlock", "transaction", "locking"},
	},
	{
		Title:             "TLS Certificate Expired",
		Phenomenon:        "curl: (60) SSL certificate problem: certificate has expired. Browsers show NET::ERR_CERT_DATE_INVALID.",
		RootCauseAnalysis: "The server's TLS certificate passed its expiry date. Automated renewal either was not configured or failed silently, and no alerting existed on certificate age.",
		Solutions: []string{
			"Renew the certificate immediately (e.g., certbot renew for Let's Encrypt)",
			"Reload or restart the terminating proxy so the new certificate is served",
			"Set up automated renewal and alerting on certificates nearing expiry",
		},
		Category: types.CategoryNetworking,
		Tags:     []string{"tls", "certificate", "https", "expiry"},
	},
}
