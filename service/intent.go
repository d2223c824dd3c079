package service

import (
	"strings"

	"github.com/opsmind-ai/kb-gateway/types"
)

// IntentClassifier labels a query with a coarse category to bias retrieval.
// The label is either a category from the closed taxonomy or
// types.IntentUnknown, which makes the retriever search all common
// categories.
type IntentClassifier interface {
	Classify(query string) types.Intent
}

// KeywordIntentClassifier scores the query against per-category keyword
// lists. Deterministic: same query, same intent.
type KeywordIntentClassifier struct {
	rules []intentRule
}

type intentRule struct {
	category types.Category
	keywords []string
}

func NewKeywordIntentClassifier() *KeywordIntentClassifier {
	return &KeywordIntentClassifier{
		rules: []intentRule{
			{types.CategoryDatabase, []string{
				"postgres", "postgresql", "mysql", "mariadb", "mongodb", "redis",
				"database", "deadlock", "connection pool", "max_connections",
				"replication", "sql", "query plan", "connection slots",
			}},
			{types.CategoryKubernetes, []string{
				"kubernetes", "k8s", "kubectl", "pod", "crashloopbackoff",
				"crashloop", "namespace", "helm", "node not ready", "oomkilled",
				"ingress", "replicaset", "daemonset",
			}},
			{types.CategoryCICD, []string{
				"pipeline", "jenkins", "gitlab ci", "github actions", "build failed",
				"deploy failed", "artifact", "ci/cd", "ci cd", "runner",
			}},
			{types.CategoryCloudInfra, []string{
				"aws", "gcp", "azure", "s3", "iam", "ec2", "lambda", "terraform",
				"cloudformation", "vpc", "accessdenied", "cloud",
			}},
			{types.CategoryObservability, []string{
				"prometheus", "grafana", "alertmanager", "datadog", "metrics",
				"dashboard", "tracing", "log aggregation", "no data points",
			}},
			{types.CategoryStorage, []string{
				"disk full", "disk space", "volume", "pvc", "persistent volume",
				"nfs", "inode", "filesystem", "mount", "read-only file system",
			}},
			{types.CategoryApplication, []string{
				"nullpointerexception", "null pointer", "stack trace", "panic",
				"segfault", "exception", "http 500", "internal server error",
				"memory leak", "out of memory",
			}},
			{types.CategoryNetworking, []string{
				"dns", "connection refused", "connection reset", "timeout",
				"latency", "firewall", "tls", "certificate", "handshake",
				"network", "proxy", "load balancer",
			}},
			{types.CategorySecurity, []string{
				"vulnerability", "cve", "unauthorized", "forbidden", "breach",
				"security", "exploit", "credential", "token expired", "audit",
			}},
		},
	}
}

// Classify picks the category with the most keyword hits. Confidence grows
// with the hit count and is capped well below certainty; a query matching
// nothing is unknown with a floor confidence.
func (c *KeywordIntentClassifier) Classify(query string) types.Intent {
	text := strings.ToLower(query)

	best := types.Intent{Label: types.IntentUnknown, Confidence: 0.25}
	bestHits := 0
	for _, rule := range c.rules {
		hits := 0
		for _, keyword := range rule.keywords {
			if strings.Contains(text, keyword) {
				hits++
			}
		}
		// Strictly greater keeps the first rule on ties, so the result is
		// stable across calls.
		if hits > bestHits {
			bestHits = hits
			best = types.Intent{
				Label:      string(rule.category),
				Confidence: intentConfidence(hits),
			}
		}
	}
	return best
}

func intentConfidence(hits int) float64 {
	conf := 0.5 + 0.1*float64(hits-1)
	if conf > 0.9 {
		conf = 0.9
	}
	return conf
}
