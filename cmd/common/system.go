// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package common

import (
	"context"
	"fmt"
	"os"
	"strings"

	"test-smith/internal/config"
	"test-smith/internal/errs"
	"test-smith/internal/telemetry"
	"test-smith/pkg/agent"
	causalwf "test-smith/pkg/workflows/causal"
	codeinvestigationwf "test-smith/pkg/workflows/codeinvestigation"
	comparativewf "test-smith/pkg/workflows/comparative"
	factcheckwf "test-smith/pkg/workflows/factcheck"
	quickresearchwf "test-smith/pkg/workflows/quickresearch"

	"test-smith/pkg/document/chunker"
	"test-smith/pkg/embedding"
	"test-smith/pkg/hierarchical"
	"test-smith/pkg/llm"
	"test-smith/pkg/llm/openai"
	"test-smith/pkg/retrieval"
	"test-smith/pkg/schema"
	"test-smith/pkg/statestore"
	"test-smith/pkg/steps"
	"test-smith/pkg/vectorstore"
	"test-smith/pkg/vectorstore/qdrant"
	"test-smith/pkg/websearch"
	"test-smith/pkg/workflow"

	"github.com/google/uuid"
)

// DeepResearchWorkflow names the hierarchical subtask-executor workflow
// (spec §4.9) in the registry. The other workflow names are their
// respective pkg/workflows/*.Name constants.
const DeepResearchWorkflow = "deep_research"

// knownSearchEndpoints maps a SEARCH_PROVIDER_PRIORITY entry to its hosted
// search API endpoint. A provider named in WebSearch.ProviderOrder but
// absent here is skipped with a warning log rather than failing startup,
// since the set of supported providers is expected to grow over time.
var knownSearchEndpoints = map[string]string{
	"tavily": "https://api.tavily.com/search",
	"brave":  "https://api.search.brave.com/res/v1/web/search",
	"serper": "https://google.serper.dev/search",
}

// System encapsulates every component InitializeSystem wires together: the
// two LLM roles, the embedder, the document and code vector stores, the
// schema resolver used for ingestion, the checkpoint state store, and the
// workflow registry/engine pair that runs every registered workflow.
type System struct {
	Config          *config.Config
	Logger          *telemetry.Logger
	ReasoningLLM    llm.Provider
	FastLLM         llm.Provider
	Embedder        embedding.Embedder
	VectorStore     vectorstore.Store
	CodeVectorStore vectorstore.Store
	SchemaResolver  *schema.Resolver
	StateStore      workflow.StateStore
	Registry        *workflow.Registry
	Engine          *workflow.Engine
}

// InitializeSystem creates and wires every system component from cfg,
// registering all six workflows (spec §4.9, §4.10) before returning.
func InitializeSystem(cfg *config.Config) (*System, error) {
	sys := &System{Config: cfg}

	level := telemetry.ParseLevel(cfg.Logging.Level)
	sys.Logger = telemetry.New(os.Stderr, level, cfg.Logging.StructuredJSON)

	if err := sys.initLLMs(); err != nil {
		return nil, fmt.Errorf("failed to initialize LLMs: %w", err)
	}
	if err := sys.initEmbedder(); err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	if err := sys.initVectorStores(); err != nil {
		return nil, fmt.Errorf("failed to initialize vector stores: %w", err)
	}
	if err := sys.initSchemaResolver(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema resolver: %w", err)
	}
	if err := sys.initStateStore(); err != nil {
		return nil, fmt.Errorf("failed to initialize state store: %w", err)
	}
	if err := sys.initWorkflows(); err != nil {
		return nil, fmt.Errorf("failed to initialize workflows: %w", err)
	}

	return sys, nil
}

// initLLMs constructs both LLM roles, surfacing a missing credential or an
// unrecognized provider name as *errs.ConfigurationError so the CLI's
// exitCodeForError maps it to exit code 2 rather than the generic 1.
func (s *System) initLLMs() error {
	switch s.Config.LLM.ReasoningLLM.Provider {
	case "openai":
		provider, err := openai.NewProvider(s.Config.LLM.ReasoningLLM.APIKey, s.Config.LLM.ReasoningLLM.Model, s.Config.ToLLMConfig())
		if err != nil {
			return &errs.ConfigurationError{Reason: fmt.Sprintf("reasoning LLM: %v", err)}
		}
		s.ReasoningLLM = provider
	default:
		return &errs.ConfigurationError{Reason: fmt.Sprintf("unsupported reasoning LLM provider: %s", s.Config.LLM.ReasoningLLM.Provider)}
	}

	switch s.Config.LLM.FastLLM.Provider {
	case "openai":
		provider, err := openai.NewProvider(s.Config.LLM.FastLLM.APIKey, s.Config.LLM.FastLLM.Model, s.Config.ToFastLLMConfig())
		if err != nil {
			return &errs.ConfigurationError{Reason: fmt.Sprintf("fast LLM: %v", err)}
		}
		s.FastLLM = provider
	default:
		return &errs.ConfigurationError{Reason: fmt.Sprintf("unsupported fast LLM provider: %s", s.Config.LLM.FastLLM.Provider)}
	}

	return nil
}

func (s *System) initEmbedder() error {
	switch s.Config.Embedding.Provider {
	case "openai":
		embedder, err := embedding.NewOpenAIEmbedder(s.Config.Embedding.APIKey, s.Config.Embedding.Model, s.Config.ToEmbeddingConfig())
		if err != nil {
			return &errs.ConfigurationError{Reason: fmt.Sprintf("embedder: %v", err)}
		}
		s.Embedder = embedder
	default:
		return &errs.ConfigurationError{Reason: fmt.Sprintf("unsupported embedding provider: %s", s.Config.Embedding.Provider)}
	}
	return nil
}

// initVectorStores creates two Qdrant connections: one bound to the
// document knowledge base's DefaultCollection, one bound to the
// code-investigation workflow's CodeCollection. vectorstore.Store binds its
// collection at construction (no per-call CollectionName on Search), so a
// second collection needs a second *qdrant.Store rather than a second
// retriever over the same store. A missing address or an unrecognized
// store type is a configuration error, same as a missing LLM credential.
func (s *System) initVectorStores() error {
	switch s.Config.VectorStore.Type {
	case "qdrant":
		docStore, err := qdrant.NewStore(s.Config.VectorStore.Address, s.Config.ToVectorStoreConfig())
		if err != nil {
			return &errs.ConfigurationError{Reason: fmt.Sprintf("document vector store: %v", err)}
		}
		s.VectorStore = docStore

		codeCfg := *s.Config.ToVectorStoreConfig()
		codeCfg.DefaultCollection = s.Config.VectorStore.CodeCollection
		codeStore, err := qdrant.NewStore(s.Config.VectorStore.Address, &codeCfg)
		if err != nil {
			return &errs.ConfigurationError{Reason: fmt.Sprintf("code vector store: %v", err)}
		}
		s.CodeVectorStore = codeStore
	default:
		return &errs.ConfigurationError{Reason: fmt.Sprintf("unsupported vector store type: %s", s.Config.VectorStore.Type)}
	}
	return nil
}

func (s *System) initSchemaResolver() error {
	s.SchemaResolver = schema.NewResolver(s.ReasoningLLM, &schema.ResolverConfig{
		EnablePatternMatching: true,
		EnableLLMAnalysis:     true,
		EnableCaching:         true,
		CacheTTL:              3600000000000, // 1 hour in nanoseconds
	})
	return nil
}

func (s *System) initStateStore() error {
	store, err := statestore.New(s.Config.StateStore.Backend, s.Config.StateStore.DSN)
	if err != nil {
		return fmt.Errorf("failed to create state store: %w", err)
	}
	s.StateStore = store
	return nil
}

func (s *System) buildWebSearcher() websearch.Searcher {
	var providers []websearch.Searcher
	for _, name := range s.Config.WebSearch.ProviderOrder {
		endpoint, ok := knownSearchEndpoints[name]
		if !ok {
			s.Logger.Warning("skipping unknown web search provider", map[string]any{"provider": name})
			continue
		}
		providers = append(providers, websearch.NewHTTPProvider(&websearch.ProviderConfig{
			Name:     name,
			Endpoint: endpoint,
			APIKey:   s.Config.WebSearch.APIKeys[name],
		}))
	}
	if len(providers) == 0 {
		return nil
	}
	return websearch.NewChainSearcher(providers, &websearch.ChainConfig{RequestsPerSecond: 5, Burst: 5}, s.Logger)
}

// initWorkflows builds the shared steps.Library, the hierarchical
// subtask-executor graph, and all five specialized workflows, registering
// every one of them into a single workflow.Registry/Engine pair. Each
// Register call is explicit here rather than an import-time side effect
// (spec §9), so the full set of runnable workflows is visible at this one
// call site.
func (s *System) initWorkflows() error {
	wf := s.Config.Workflow

	// Reasoning-model token budgets need headroom for gpt-5-family models,
	// whose MaxTokens covers hidden reasoning tokens as well as output.
	plannerMaxTokens := 2000
	if strings.HasPrefix(s.Config.LLM.ReasoningLLM.Model, "gpt-5") {
		plannerMaxTokens = 16000
	}
	fastMaxTokens := 500
	if strings.HasPrefix(s.Config.LLM.FastLLM.Model, "gpt-5") {
		fastMaxTokens = 2500
	}

	planner := agent.NewStrategicPlanner(s.ReasoningLLM, &agent.PlannerConfig{
		Temperature: s.Config.LLM.ReasoningLLM.DefaultTemperature,
		MaxTokens:   plannerMaxTokens,
	})
	supervisor := agent.NewSupervisor(s.FastLLM, &agent.SupervisorConfig{Temperature: 0.3, MaxTokens: 300})
	rewriter := agent.NewRewriter(s.FastLLM, &agent.RewriterConfig{Temperature: 0.5, MaxTokens: 300})
	reranker := agent.NewReranker(&agent.RerankerConfig{TopN: wf.TopKRetrieval})
	retrieverAgent := agent.NewRetriever(s.VectorStore, s.Embedder, s.Config.VectorStore.DefaultCollection)

	distiller := agent.NewDistiller(s.FastLLM, &agent.DistillerConfig{Temperature: 0.3, MaxTokens: fastMaxTokens})
	reflector := agent.NewReflector(s.FastLLM, &agent.ReflectorConfig{Temperature: 0.5, MaxTokens: fastMaxTokens})
	analyzer := agent.NewAnalyzer(s.FastLLM, distiller, reflector, &agent.AnalyzerConfig{Temperature: 0.3, MaxTokens: fastMaxTokens})
	evaluator := agent.NewEvaluator(s.ReasoningLLM, &agent.EvaluatorConfig{Temperature: 0.2, MaxTokens: 500})
	synthesizer := agent.NewSynthesizer(s.ReasoningLLM, &agent.SynthesizerConfig{Temperature: 0.4, MaxTokens: plannerMaxTokens})

	vectorRet := retrieval.NewVectorRetriever(s.VectorStore, s.Embedder)
	keywordRet := retrieval.NewKeywordRetriever(s.VectorStore)
	hybridRet := retrieval.NewHybridRetriever(vectorRet, keywordRet)

	searcher := s.buildWebSearcher()

	lib := &steps.Library{
		Planner:     planner,
		Supervisor:  supervisor,
		Retriever:   retrieverAgent,
		Rewriter:    rewriter,
		Reranker:    reranker,
		VectorRet:   vectorRet,
		KeywordRet:  keywordRet,
		HybridRet:   hybridRet,
		Searcher:    searcher,
		Analyzer:    analyzer,
		Evaluator:   evaluator,
		Synthesizer: synthesizer,
		Collection:  s.Config.VectorStore.DefaultCollection,
		TopK:        wf.TopKRetrieval,
		MaxLoops:    wf.MaxLoops,
	}

	s.Registry = workflow.NewRegistry()

	engineBudgets := workflow.Budgets{
		RecursionLimit: wf.RecursionLimit,
		MaxLoops:       wf.MaxLoops,
		StepTimeoutSec: wf.StepTimeoutSecs,
		RunTimeoutSec:  wf.RunTimeoutSecs,
	}

	if err := s.registerDeepResearch(lib, engineBudgets); err != nil {
		return err
	}

	quickLib := scopedLibrary(lib, wf.MaxLoops)
	if err := quickresearchwf.Register(s.Registry, quickLib, engineBudgets); err != nil {
		return fmt.Errorf("registering %s: %w", quickresearchwf.Name, err)
	}

	factLib := scopedLibrary(lib, wf.MaxLoops)
	categorizer := agent.NewEvidenceCategorizer(s.FastLLM, nil)
	factSynth := agent.NewFactCheckSynthesizer(s.ReasoningLLM, nil)
	if err := factcheckwf.Register(s.Registry, factLib, categorizer, factSynth, engineBudgets); err != nil {
		return fmt.Errorf("registering %s: %w", factcheckwf.Name, err)
	}

	compLib := scopedLibrary(lib, wf.MaxLoops)
	compPlanner := agent.NewComparativePlanner(s.ReasoningLLM, nil)
	compSynth := agent.NewComparativeSynthesizer(s.ReasoningLLM, nil)
	if err := comparativewf.Register(s.Registry, compLib, compPlanner, compSynth, engineBudgets); err != nil {
		return fmt.Errorf("registering %s: %w", comparativewf.Name, err)
	}

	causalLib := scopedLibrary(lib, wf.MaxLoops)
	causalAgents := &causalwf.Agents{
		IssueAnalyzer:   agent.NewIssueAnalyzer(s.ReasoningLLM, nil),
		Brainstormer:    agent.NewBrainstormer(s.ReasoningLLM, nil),
		EvidencePlanner: agent.NewEvidencePlanner(s.FastLLM, nil),
		Checker:         agent.NewCausalChecker(s.ReasoningLLM, nil),
		Validator:       agent.NewHypothesisValidator(),
		GraphBuilder:    agent.NewGraphBuilder(s.ReasoningLLM, nil),
		Synthesizer:     agent.NewCausalSynthesizer(s.ReasoningLLM, nil),
	}
	if err := causalwf.Register(s.Registry, causalLib, causalAgents, engineBudgets); err != nil {
		return fmt.Errorf("registering %s: %w", causalwf.Name, err)
	}

	codeVectorRet := retrieval.NewVectorRetriever(s.CodeVectorStore, s.Embedder)
	codeKeywordRet := retrieval.NewKeywordRetriever(s.CodeVectorStore)
	codeHybridRet := retrieval.NewHybridRetriever(codeVectorRet, codeKeywordRet)
	codeAgents := &codeinvestigationwf.Agents{
		QueryAnalyzer:      agent.NewQueryAnalyzer(s.FastLLM, nil),
		DependencyAnalyzer: agent.NewDependencyAnalyzer(s.ReasoningLLM, nil),
		FlowTracker:        agent.NewFlowTracker(s.ReasoningLLM, nil),
		Synthesizer:        agent.NewCodeInvestigationSynthesizer(s.ReasoningLLM, nil),
	}
	if err := codeinvestigationwf.Register(s.Registry, codeHybridRet, codeAgents, wf.TopKRetrieval, engineBudgets); err != nil {
		return fmt.Errorf("registering %s: %w", codeinvestigationwf.Name, err)
	}

	s.Engine = workflow.NewEngine(s.Registry, s.StateStore, s.Logger)
	return nil
}

// scopedLibrary copies lib so a workflow-specific MaxLoops override never
// leaks into a sibling workflow sharing the same underlying agents and
// retrievers.
func scopedLibrary(lib *steps.Library, maxLoops int) *steps.Library {
	scoped := *lib
	scoped.MaxLoops = maxLoops
	return &scoped
}

func (s *System) registerDeepResearch(lib *steps.Library, budgets workflow.Budgets) error {
	wf := s.Config.Workflow
	hierLib := scopedLibrary(lib, wf.MaxLoops)

	mp := hierarchical.NewMasterPlanner(s.ReasoningLLM, nil)
	de := hierarchical.NewDepthEvaluator(s.FastLLM, nil)
	dg := hierarchical.NewDrillDownGenerator(s.ReasoningLLM, nil)
	pr := hierarchical.NewPlanRevisor(s.ReasoningLLM, nil)

	hierBudgets := hierarchical.Budgets{
		MaxDepth:         wf.MaxDepth,
		MaxTotalSubtasks: wf.MaxTotalSubtasks,
		MaxRevisions:     wf.MaxRevisions,
	}

	graph, schema, err := hierarchical.BuildGraph(hierLib, mp, de, dg, pr, hierBudgets)
	if err != nil {
		return fmt.Errorf("building hierarchical graph: %w", err)
	}

	return s.Registry.Register(&workflow.Definition{
		Name:    DeepResearchWorkflow,
		Graph:   graph,
		Schema:  schema,
		Budgets: budgets,
	})
}

// IngestDocument processes and ingests a document into the document
// knowledge base. If deriveSchema is true, uses schema-aware chunking;
// otherwise uses simple paragraph chunking.
func (s *System) IngestDocument(ctx context.Context, docID string, content string, deriveSchema bool) (int, error) {
	var chunks []string
	var chunkMetadata []map[string]interface{}

	if deriveSchema && s.SchemaResolver != nil {
		resolutionResult, err := s.SchemaResolver.Resolve(ctx, docID, content, "text/plain", nil)
		if err != nil {
			chunks, chunkMetadata = splitWithMetadata(content, docID)
		} else {
			chunkerConfig := chunker.DefaultConfig()
			chunkResults, err := chunker.ChunkDocument(content, resolutionResult.Schema, chunkerConfig)
			if err != nil {
				chunks, chunkMetadata = splitWithMetadata(content, docID)
			} else {
				chunks = make([]string, len(chunkResults))
				chunkMetadata = make([]map[string]interface{}, len(chunkResults))
				for i, chunkResult := range chunkResults {
					chunks[i] = chunkResult.Text
					metadata := map[string]interface{}{"doc_id": docID}
					if chunkResult.Metadata != nil {
						metadata["section_id"] = chunkResult.Metadata.SectionID
						metadata["section_type"] = chunkResult.Metadata.SectionType
						metadata["hierarchy"] = chunkResult.Metadata.HierarchyPath
					}
					chunkMetadata[i] = metadata
				}
			}
		}
	} else {
		chunks, chunkMetadata = splitWithMetadata(content, docID)
	}

	embedResp, err := s.Embedder.Embed(ctx, &embedding.EmbedRequest{Texts: chunks})
	if err != nil {
		return 0, fmt.Errorf("failed to generate embeddings: %w", err)
	}

	docs := make([]vectorstore.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = vectorstore.Document{
			ID:        uuid.New().String(),
			Content:   chunk,
			Embedding: embedResp.Vectors[i].Embedding,
			Metadata:  chunkMetadata[i],
		}
	}

	_, err = s.VectorStore.Insert(ctx, &vectorstore.InsertRequest{
		CollectionName: s.Config.VectorStore.DefaultCollection,
		Documents:      docs,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to insert chunks: %w", err)
	}

	return len(chunks), nil
}

// IngestCode processes and ingests source code into the code-investigation
// collection, tagging every chunk with the file_path/start_line/end_line
// metadata pkg/agent/codeinvestigation.go's findings cite.
func (s *System) IngestCode(ctx context.Context, filePath string, content string) (int, error) {
	lines := strings.Split(content, "\n")
	const linesPerChunk = 60

	var chunks []string
	var chunkMetadata []map[string]interface{}
	for start := 0; start < len(lines); start += linesPerChunk {
		end := start + linesPerChunk
		if end > len(lines) {
			end = len(lines)
		}
		chunks = append(chunks, strings.Join(lines[start:end], "\n"))
		chunkMetadata = append(chunkMetadata, map[string]interface{}{
			"file_path":  filePath,
			"start_line": start + 1,
			"end_line":   end,
		})
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	embedResp, err := s.Embedder.Embed(ctx, &embedding.EmbedRequest{Texts: chunks})
	if err != nil {
		return 0, fmt.Errorf("failed to generate embeddings: %w", err)
	}

	docs := make([]vectorstore.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = vectorstore.Document{
			ID:        uuid.New().String(),
			Content:   chunk,
			Embedding: embedResp.Vectors[i].Embedding,
			Metadata:  chunkMetadata[i],
		}
	}

	_, err = s.CodeVectorStore.Insert(ctx, &vectorstore.InsertRequest{
		CollectionName: s.Config.VectorStore.CodeCollection,
		Documents:      docs,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to insert code chunks: %w", err)
	}

	return len(chunks), nil
}

func splitWithMetadata(content, docID string) ([]string, []map[string]interface{}) {
	chunks := splitIntoChunks(content, 512)
	metadata := make([]map[string]interface{}, len(chunks))
	for i := range chunks {
		metadata[i] = map[string]interface{}{"doc_id": docID}
	}
	return chunks, metadata
}

// splitIntoChunks splits text into chunks of approximately maxSize characters.
func splitIntoChunks(text string, maxSize int) []string {
	var chunks []string
	var currentChunk string

	lines := strings.Split(text, "\n")
	for _, line := range lines {
		if len(currentChunk)+len(line)+1 > maxSize && len(currentChunk) > 0 {
			chunks = append(chunks, strings.TrimSpace(currentChunk))
			currentChunk = line
		} else {
			if len(currentChunk) > 0 {
				currentChunk += "\n"
			}
			currentChunk += line
		}
	}
	if len(currentChunk) > 0 {
		chunks = append(chunks, strings.TrimSpace(currentChunk))
	}
	return chunks
}

// Close releases all system resources.
func (s *System) Close() error {
	if s.CodeVectorStore != nil {
		if err := s.CodeVectorStore.Close(); err != nil {
			return err
		}
	}
	if s.VectorStore != nil {
		return s.VectorStore.Close()
	}
	return nil
}
