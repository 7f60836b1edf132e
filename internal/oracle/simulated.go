package oracle

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/cogitolabs/ruminate/internal/prompt"
)

// domainKnowledge holds canned responses for one knowledge domain.
type domainKnowledge struct {
	keywords  []string
	priority  []string // keywords that break ties toward this domain
	responses []string
}

// knowledge is the simulator's response bank, keyed by detected domain.
var knowledge = map[string]domainKnowledge{
	"algorithms": {
		keywords: []string{"recursive", "sorting", "complexity", "optimization", "algorithm", "binary search", "dynamic programming", "linked list"},
		priority: []string{"algorithm", "complexity", "sorting", "optimization"},
		responses: []string{
			"For recursive algorithms, implement memoization to cache results and avoid redundant calculations. Consider the base case carefully and ensure stack overflow protection for deep recursions.",
			"When optimizing sorting algorithms, consider the input characteristics: quicksort for general cases, mergesort for stability, radix sort for integers, and heapsort for guaranteed O(n log n).",
			"Dynamic programming works best when you have overlapping subproblems and optimal substructure. Break the problem into smaller subproblems and build up the solution.",
			"Profile your algorithm with realistic data sizes. Use Big O analysis but also measure real performance. Consider space-time tradeoffs and the specific constraints of your use case.",
		},
	},
	"systems": {
		keywords: []string{"scalable", "architecture", "concurrent", "distributed", "system design", "microservices", "database"},
		priority: []string{"design", "architecture", "scalable", "distributed"},
		responses: []string{
			"Design for horizontal scalability from the start. Use load balancers, implement caching layers, and consider database sharding strategies.",
			"In distributed systems, understand CAP theorem trade-offs. Choose between consistency and availability based on your use case. Implement proper circuit breakers and retry mechanisms.",
			"For concurrent systems, use thread-safe data structures, minimize shared state, and consider message-passing over shared memory. Always handle race conditions and deadlocks.",
			"Monitor system health with comprehensive metrics (latency, throughput, error rates). Implement distributed tracing and establish clear SLA targets.",
		},
	},
	"machine_learning": {
		keywords: []string{"machine learning", "ml", "overfitting", "model", "training", "neural network", "gradient descent", "classification", "regression", "dataset", "features", "cross-validation", "hyperparameters"},
		priority: []string{"machine learning", "ml", "overfitting", "model"},
		responses: []string{
			"For unbalanced classification problems, use techniques like SMOTE for oversampling, undersampling the majority class, or cost-sensitive learning. Evaluate with precision, recall, F1-score, and AUC-ROC rather than just accuracy.",
			"Prevent overfitting through regularization, dropout, early stopping, and cross-validation. Use more training data when possible and consider ensemble methods to reduce variance.",
			"Start with simple algorithms before complex ones. Focus on feature engineering and data quality - clean, relevant features often matter more than complex models.",
			"Understand your evaluation metrics: accuracy for balanced datasets, precision/recall for imbalanced ones, and AUC-ROC for ranking problems. Always use proper train/validation/test splits.",
		},
	},
	"debugging": {
		keywords: []string{"debug", "debugging", "error", "bug", "crash", "exception", "troubleshoot"},
		priority: []string{"debug", "debugging", "troubleshoot"},
		responses: []string{
			"Use systematic debugging: reproduce the issue consistently, check logs and error messages, use debugger breakpoints, and isolate the problem to the smallest failing case.",
			"For production debugging, implement comprehensive logging with different levels. Use distributed tracing in microservices to track request flows.",
			"Common debugging strategies: rubber duck debugging, binary search through code changes, checking recent modifications, and validating assumptions with assertions.",
		},
	},
}

const fallbackResponse = "Analyze the problem systematically by breaking it into smaller components, researching existing solutions, and implementing a well-tested approach."

// Simulator is an offline Oracle that fabricates plausible responses from a
// small knowledge bank. It lets the whole reflection loop run end-to-end with
// no API key; a real provider can be swapped in without touching the engine.
//
// Refinement prompts are recognized by their marker and handled by appending
// improvement passages keyed on the listed issues, so refined responses
// genuinely address the critique text.
type Simulator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

var _ Oracle = (*Simulator)(nil)

// NewSimulator creates a simulator seeded for reproducible sessions
func NewSimulator(seed int64) *Simulator {
	return &Simulator{rng: rand.New(rand.NewSource(seed))}
}

// Generate implements Oracle
func (s *Simulator) Generate(_ context.Context, p string) (string, error) {
	if strings.Contains(p, prompt.MetaAuditMarker) {
		return s.audit(), nil
	}
	if strings.Contains(p, prompt.RefinementMarker) {
		return s.refine(p), nil
	}
	return s.respond(p), nil
}

// auditNotes are the canned second-order assessments the simulator rotates
// through when asked to audit a critique.
var auditNotes = []string{
	"The critique raises concrete issues and pairs them with actionable suggestions.",
	"Coverage is reasonable but the critique leans on surface heuristics over substance.",
	"Balanced assessment; the suggestions map directly onto the issues raised.",
	"Thorough on structure, lighter on domain-specific depth.",
}

// audit answers a meta-audit prompt with the structured JSON the
// meta-reflection layer parses. Keeping this path JSON-valid is what lets
// meta-reflection run fully offline.
func (s *Simulator) audit() string {
	s.mu.Lock()
	score := 0.6 + 0.3*s.rng.Float64()
	note := auditNotes[s.rng.Intn(len(auditNotes))]
	s.mu.Unlock()
	return fmt.Sprintf(`{"score": %.2f, "notes": %q}`, score, note)
}

// respond produces an initial answer: detect the domain by keyword score,
// pick a canned response, and apply the style the prompt asks for.
func (s *Simulator) respond(p string) string {
	lower := strings.ToLower(p)

	best := ""
	bestScore := 0.0
	for name, d := range knowledge {
		score := 0.0
		for _, kw := range d.keywords {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		// Priority keywords break ties toward the domain's action words
		for _, kw := range d.priority {
			if strings.Contains(lower, kw) {
				score += 0.5
			}
		}
		if score > bestScore {
			bestScore = score
			best = name
		}
	}

	base := fallbackResponse
	if d, ok := knowledge[best]; ok && bestScore > 0 {
		s.mu.Lock()
		base = d.responses[s.rng.Intn(len(d.responses))]
		s.mu.Unlock()
	}

	switch {
	case strings.Contains(lower, "implementation-focused"):
		return "Technical analysis: " + base + " Examine implementation details, performance characteristics, and technical constraints thoroughly."
	case strings.Contains(lower, "exploratory"):
		return "Creative approach: " + base + " Challenge conventional wisdom and explore approaches from adjacent fields or emerging technologies."
	case strings.Contains(lower, "step-by-step"):
		return "Systematic methodology:\n1) Problem analysis: break down requirements and constraints\n2) Solution design: " + base + "\n3) Implementation: build incrementally with continuous testing\n4) Validation: verify correctness and performance against requirements"
	default:
		return base + " Consider both immediate implementation needs and long-term maintainability."
	}
}

// issueAddons maps critique-issue keywords to the passage that addresses them.
var issueAddons = []struct {
	keyword string
	addon   string
}{
	{"depth", " This approach should be implemented with careful consideration of edge cases, error handling, and performance implications in production environments."},
	{"methodology", " Methodology: a systematic decomposition into analysis, design, implementation, and validation phases keeps the solution complete."},
	{"complexity", " Performance analysis: evaluate time complexity (worst, average, best case) and space complexity, and identify scalability limits."},
	{"validation", " Validation: use proper train/validation/test splits, cross-validation, and baseline metrics to keep results honest."},
	{"scalability", " System design: plan for horizontal scaling, implement health checks, design for failure resilience, and establish monitoring."},
	{"trade-off", " Trade-offs: weigh performance against complexity, development time against optimization, and cost against reliability."},
	{"example", " Example: in practice this might involve profilers for performance work or A/B testing for feature validation."},
	{"best practice", " Best practices: follow industry standards, use established patterns, and leverage proven frameworks where possible."},
	{"testing", " Quality assurance: comprehensive testing (unit, integration, end-to-end), code review, and continuous integration."},
	{"limitation", " Limitations: be explicit about implementation complexity, resource requirements, and potential failure modes."},
}

// refine extracts the previous response and the listed issues from a
// refinement prompt and returns an improved response that addresses each one.
func (s *Simulator) refine(p string) string {
	prev := extractPrevious(p)

	refined := prev
	for _, issue := range extractBullets(p, prompt.RefinementMarker) {
		lower := strings.ToLower(issue)
		matched := false
		for _, a := range issueAddons {
			if strings.Contains(lower, a.keyword) {
				refined += a.addon
				matched = true
				break
			}
		}
		if !matched {
			refined += " Additionally: " + issue + " has been addressed with concrete detail."
		}
	}
	return refined
}

// extractPrevious pulls the previous-response block out of a refinement prompt
func extractPrevious(p string) string {
	start := strings.Index(p, "PREVIOUS RESPONSE")
	end := strings.Index(p, prompt.RefinementMarker)
	if start < 0 || end < 0 || end <= start {
		return p
	}
	block := p[start:end]
	// Drop the header line itself
	if nl := strings.Index(block, "\n"); nl >= 0 {
		block = block[nl+1:]
	}
	return strings.TrimSpace(block)
}

// extractBullets collects the "- " lines following a marker, stopping at the
// first non-bullet line.
func extractBullets(p, marker string) []string {
	idx := strings.Index(p, marker)
	if idx < 0 {
		return nil
	}
	var bullets []string
	for _, line := range strings.Split(p[idx+len(marker):], "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, "- ") {
			break
		}
		bullets = append(bullets, strings.TrimPrefix(trimmed, "- "))
	}
	return bullets
}
