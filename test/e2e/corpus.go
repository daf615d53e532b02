// Package e2e provides end-to-end verification tests over a corpus of grounded and
// ungrounded answers.
package e2e

import (
	"fmt"
	"strings"

	"github.com/hyperjump/ragcheck/internal/verify"
)

type topic struct {
	title   string
	phrase  string
	content string
}

var topics = []topic{
	{"Python Guide", "Python programming language", "Python is a high-level programming language. Python programming language is used for web development and data science."},
	{"Kubernetes Docs", "Kubernetes container orchestration", "Kubernetes is an open-source container orchestration platform. Kubernetes container orchestration automates deployment and scaling."},
	{"React Tutorial", "React hooks and components", "React is a JavaScript library. React hooks and components enable building user interfaces."},
	{"Go Language", "Go golang concurrency", "Go is a statically typed language. Go golang concurrency is achieved with goroutines and channels."},
	{"PostgreSQL Manual", "PostgreSQL relational database", "PostgreSQL is an advanced relational database. PostgreSQL relational database supports JSON and full-text search."},
	{"Docker Handbook", "Docker container images", "Docker enables building and shipping applications. Docker container images are portable across environments."},
	{"Machine Learning", "machine learning algorithms", "Machine learning is a subset of AI. Machine learning algorithms learn patterns from data."},
	{"Neural Networks", "neural network deep learning", "Neural networks are inspired by the brain. Neural network deep learning powers modern AI."},
	{"REST API Design", "REST API endpoints", "REST is an architectural style for APIs. REST API endpoints use HTTP methods and status codes."},
	{"GraphQL Overview", "GraphQL query language", "GraphQL is a query language for APIs. GraphQL query language lets clients request exactly what they need."},
	{"TypeScript Handbook", "TypeScript type system", "TypeScript adds static types to JavaScript. TypeScript type system catches errors at compile time."},
	{"Redis Cache", "Redis in-memory cache", "Redis is an in-memory data store. Redis in-memory cache is used for sessions and caching."},
	{"Elasticsearch Guide", "Elasticsearch full-text search", "Elasticsearch is a search and analytics engine. Elasticsearch full-text search scales horizontally."},
	{"AWS Lambda", "AWS Lambda serverless", "AWS Lambda runs code without servers. AWS Lambda serverless scales automatically."},
	{"Terraform IaC", "Terraform infrastructure as code", "Terraform manages cloud infrastructure. Terraform infrastructure as code is declarative."},
	{"Prometheus Metrics", "Prometheus monitoring metrics", "Prometheus is a monitoring system. Prometheus monitoring metrics are time-series based."},
	{"gRPC Overview", "gRPC remote procedure calls", "gRPC is a high-performance RPC framework. gRPC remote procedure calls use HTTP/2 and protobuf."},
	{"OAuth 2.0", "OAuth 2.0 authorization", "OAuth 2.0 is an authorization framework. OAuth 2.0 authorization enables secure delegated access."},
	{"JWT Tokens", "JWT JSON web tokens", "JWT is a compact token format. JWT JSON web tokens are used for authentication."},
	{"CI/CD Pipelines", "CI/CD continuous integration", "CI/CD automates build and deployment. CI/CD continuous integration runs tests on every commit."},
	{"Git Workflow", "Git version control", "Git is a distributed version control system. Git version control tracks changes in source code."},
	{"SQL Basics", "SQL structured query language", "SQL is used to manage relational data. SQL structured query language has SELECT INSERT UPDATE DELETE."},
	{"Microservices", "microservices architecture", "Microservices split an app into small services. Microservices architecture enables independent deployment."},
	{"Kafka Streams", "Apache Kafka streaming", "Apache Kafka is a distributed event stream platform. Apache Kafka streaming handles high throughput."},
	{"Nginx Config", "Nginx reverse proxy", "Nginx is a web server and reverse proxy. Nginx reverse proxy balances load and serves static files."},
	{"OOP Principles", "object-oriented programming", "OOP organizes code around objects. Object-oriented programming uses encapsulation and inheritance."},
	{"Functional Programming", "functional programming paradigm", "Functional programming treats computation as functions. Functional programming paradigm avoids mutable state."},
	{"Design Patterns", "design patterns software", "Design patterns are reusable solutions. Design patterns software includes Singleton and Factory."},
	{"API Versioning", "API versioning strategy", "API versioning allows backward compatibility. API versioning strategy can use URL or headers."},
	{"Database Indexing", "database indexing performance", "Indexes speed up queries. Database indexing performance is critical for large tables."},
	{"Cryptography Basics", "cryptography encryption decryption", "Cryptography secures data. Cryptography encryption decryption uses keys and algorithms."},
	{"HTTPS TLS", "HTTPS TLS SSL certificates", "HTTPS encrypts web traffic. HTTPS TLS SSL certificates verify identity."},
	{"Load Balancing", "load balancing high availability", "Load balancers distribute traffic. Load balancing high availability prevents single points of failure."},
	{"Caching Strategies", "caching strategy cache invalidation", "Caching improves performance. Caching strategy cache invalidation must be designed carefully."},
	{"Event Sourcing", "event sourcing CQRS", "Event sourcing stores state as events. Event sourcing CQRS separates read and write models."},
	{"Domain-Driven Design", "domain-driven design DDD", "DDD focuses on the business domain. Domain-driven design DDD uses aggregates and bounded contexts."},
	{"Agile Scrum", "Agile Scrum sprint", "Agile is an iterative approach. Agile Scrum sprint typically lasts two weeks."},
	{"Unit Testing", "unit testing mock", "Unit tests verify small units of code. Unit testing mock isolates dependencies."},
	{"Integration Testing", "integration testing E2E", "Integration tests verify components together. Integration testing E2E validates full flows."},
	{"Dependency Injection", "dependency injection DI", "DI provides dependencies from outside. Dependency injection DI improves testability."},
}

// Scenario is one question with its retrieved documents, an answer grounded in the
// documents and an answer taken from an unrelated topic.
type Scenario struct {
	ID         string
	Title      string
	Phrase     string
	Question   string
	Documents  []string
	Faithful   string
	Unfaithful string
}

// Context returns the verification context of the scenario.
func (s Scenario) Context() verify.Context {
	return verify.Context{Question: s.Question, RetrievedDocs: s.Documents}
}

// BuildScenarios returns one scenario per topic. The documents are the topic's text and
// the text of a neighbouring topic; the faithful answer is the topic's second sentence
// and the unfaithful answer is the second sentence of a topic half the corpus away.
func BuildScenarios() []Scenario {
	n := len(topics)
	out := make([]Scenario, 0, n)
	for i, t := range topics {
		distractor := topics[(i+1)%n]
		other := topics[(i+n/2)%n]
		out = append(out, Scenario{
			ID:         fmt.Sprintf("e2e-%03d", i+1),
			Title:      t.title,
			Phrase:     t.phrase,
			Question:   "What is " + t.phrase + "?",
			Documents:  []string{t.content, distractor.content},
			Faithful:   secondSentence(t.content),
			Unfaithful: secondSentence(other.content),
		})
	}
	return out
}

// secondSentence returns the text after the first ". ", or the whole text when there is none.
func secondSentence(text string) string {
	if i := strings.Index(text, ". "); i >= 0 {
		return strings.TrimSpace(text[i+2:])
	}
	return text
}
