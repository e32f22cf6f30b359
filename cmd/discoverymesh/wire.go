package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/discoverymesh/discoverymesh"
	"github.com/discoverymesh/discoverymesh/config"
	"github.com/discoverymesh/discoverymesh/embedding"
	"github.com/discoverymesh/discoverymesh/interaction"
	"github.com/discoverymesh/discoverymesh/logging"
	"github.com/discoverymesh/discoverymesh/model"
	"github.com/discoverymesh/discoverymesh/model/anthropic"
	"github.com/discoverymesh/discoverymesh/model/openai"
	"github.com/discoverymesh/discoverymesh/workflow"
	"gopkg.in/natefinch/lumberjack.v2"
)

// newLogger builds the process logger from config. File output, when
// enabled, goes through lumberjack rotation alongside stderr.
func newLogger(cfg *config.AppConfig) logging.Logger {
	var w io.Writer = os.Stderr
	if cfg.Log.File.Enabled {
		w = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.Log.File.Path,
			MaxSize:    cfg.Log.File.Rotate.MaxSizeMB,
			MaxBackups: cfg.Log.File.Rotate.MaxBackups,
			MaxAge:     cfg.Log.File.Rotate.MaxAgeDays,
			Compress:   cfg.Log.File.Rotate.Compress,
		})
	}
	return logging.New(w, cfg.Log.Level)
}

// newModel selects the completion model from config.
func newModel(cfg config.ModelConfig) (model.Model, error) {
	switch cfg.Provider {
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			if cfg.Name != "" {
				o.Model = cfg.Name
			}
			o.Temperature = cfg.Temperature
			o.MaxCompletionTokens = cfg.MaxTokens
		}), nil
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.Name != "" {
				o.Model = anthropicsdk.Model(cfg.Name)
			}
			o.Temperature = cfg.Temperature
			o.MaxTokens = cfg.MaxTokens
			o.APIKey = cfg.APIKey
		}), nil
	case "mock":
		name := cfg.Name
		if name == "" {
			name = "mock"
		}
		return model.NewMockModel(name, "mock"), nil
	default:
		return nil, fmt.Errorf("unknown model provider: %s", cfg.Provider)
	}
}

// newInteractionStore selects the interaction log backend from config.
func newInteractionStore(cfg config.InteractionConfig) (interaction.Store, error) {
	switch cfg.Backend {
	case "jsonl":
		return interaction.NewJSONLStore(cfg.Path)
	default:
		return interaction.NewInMemoryStore(), nil
	}
}

// loadDefinitions returns the built-in workflow set plus any YAML
// definitions found in dir.
func loadDefinitions(dir string) ([]workflow.Definition, error) {
	defs := discoverymesh.DefaultDefinitions()
	if dir == "" {
		return defs, nil
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	for _, path := range paths {
		def, err := workflow.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load workflow %s: %w", path, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// buildMesh assembles a Mesh from application config.
func buildMesh(cfg *config.AppConfig, logger logging.Logger) (*discoverymesh.Mesh, error) {
	m, err := newModel(cfg.Model)
	if err != nil {
		return nil, err
	}
	interactions, err := newInteractionStore(cfg.Interaction)
	if err != nil {
		return nil, err
	}
	defs, err := loadDefinitions(cfg.Workflow.Dir)
	if err != nil {
		return nil, err
	}

	return discoverymesh.New(func(o *discoverymesh.Options) {
		o.Logger = logger
		o.Model = m
		o.Embedder = embedding.NewHashEmbedder(cfg.Retrieval.EmbeddingDim)
		o.Interactions = interactions
		o.Collection = cfg.Retrieval.Collection
		o.SearchLimit = cfg.Retrieval.DefaultLimit
		o.OversampleFactor = cfg.Retrieval.OversampleFactor
		o.MinPool = cfg.Retrieval.MinPool
		o.Definitions = defs
		o.DefaultWorkflowType = cfg.Workflow.DefaultType
		o.ContextBudget = cfg.Session.ContextBudget
		o.MaxHistoryTurns = cfg.Session.MaxTurns
		o.StepTimeout = cfg.Workflow.StepTimeout
		o.StepBackoff = cfg.Workflow.StepBackoff
	})
}
