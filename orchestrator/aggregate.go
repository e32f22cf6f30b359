package orchestrator

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/discoverymesh/discoverymesh/core"
	"github.com/discoverymesh/discoverymesh/workflow"
	"github.com/samber/lo"
)

// aggregate merges step outputs into the response shape. Steps are folded
// in definition order, which is the explicit ordering rule behind
// last-writer-wins conflict resolution.
func (o *Orchestrator) aggregate(def workflow.Definition, result *workflow.Result) Response {
	resp := Response{
		Success:   result.Status == workflow.StatusCompleted,
		IsPartial: result.Status == workflow.StatusPartial,
		Output:    map[string]any{},
		Products:  []core.Product{},
	}

	byID := map[string]core.Product{}
	var agents []string

	for _, step := range def.Steps {
		out, ok := result.StepOutputs[step.Name]
		if !ok {
			continue
		}
		agents = append(agents, o.agentFor(step.Capability))

		for key, value := range out {
			if key == "products" {
				mergeProducts(byID, value)
				continue
			}
			if prev, exists := resp.Output[key]; exists && !reflect.DeepEqual(prev, value) {
				o.opts.Logger.Warn("aggregation conflict, last writer wins",
					"kind", core.KindAggregationConflict.String(),
					"key", key, "step", step.Name)
			}
			resp.Output[key] = value
		}
	}

	resp.AgentsUsed = lo.Uniq(agents)
	resp.Products = rankProducts(byID)

	for _, name := range result.FailedSteps {
		resp.Errors = append(resp.Errors, fmt.Sprintf("step %s: %v", name, result.Errors[name]))
	}
	if len(resp.Output) == 0 {
		resp.Output = nil
	}
	return resp
}

// agentFor resolves a capability to the agent advertising it, falling
// back to the capability name when discovery has no binding.
func (o *Orchestrator) agentFor(capability string) string {
	if names := o.registry.Discover(capability); len(names) > 0 {
		return names[0]
	}
	return capability
}

// mergeProducts folds a step's product list into the dedupe map, keeping
// the highest score seen per id.
func mergeProducts(byID map[string]core.Product, value any) {
	items, ok := value.([]any)
	if !ok {
		return
	}
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		p := core.ProductFromPayload(m)
		if p.ID == "" {
			continue
		}
		if prev, seen := byID[p.ID]; !seen || p.Score > prev.Score {
			byID[p.ID] = p
		}
	}
}

// rankProducts orders the deduplicated products by descending score,
// breaking ties by id for determinism.
func rankProducts(byID map[string]core.Product) []core.Product {
	products := lo.Values(byID)
	sort.SliceStable(products, func(i, j int) bool {
		if products[i].Score != products[j].Score {
			return products[i].Score > products[j].Score
		}
		return products[i].ID < products[j].ID
	})
	return products
}
