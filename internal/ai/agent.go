package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"candyshop/internal/core"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"
)

// FallbackAnswer is the fixed reply the assistant fails closed to: any
// error on the insights path — missing credentials included — yields this
// string instead of propagating.
const FallbackAnswer = "Desculpe, não consegui analisar os dados agora. Tente novamente."

// Agent is the store-insights client over the text-generation service.
type Agent struct {
	client *openai.Client
}

// NewAgent returns an Agent. An empty apiKey leaves the client nil, which
// makes Ask fail closed and ProposeRestock return an error.
func NewAgent(apiKey string) *Agent {
	if apiKey == "" {
		return &Agent{}
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Agent{client: &client}
}

// Ask submits the current store snapshot plus the shopkeeper's question and
// returns the service's reply verbatim. It never returns an error: failures
// of any kind collapse into FallbackAnswer.
func (a *Agent) Ask(ctx context.Context, products []core.Product, sales []core.Sale, question string) string {
	if a.client == nil {
		return FallbackAnswer
	}

	prompt := buildStoreContext(products, sales) + "\n\nPergunta do lojista: " + question

	resp, err := a.client.Responses.New(ctx, responses.ResponseNewParams{
		Model: shared.ResponsesModel(shared.ChatModelGPT4o),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
	})
	if err != nil {
		return FallbackAnswer
	}

	answer := resp.OutputText()
	if answer == "" {
		return FallbackAnswer
	}
	return answer
}

// ProposeRestock asks the service for a structured replenishment plan for
// the products currently below the low-stock threshold. Unlike Ask this is
// an operator action: errors propagate so the caller can surface them.
func (a *Agent) ProposeRestock(ctx context.Context, products []core.Product) (*core.RestockProposal, error) {
	if a.client == nil {
		return nil, fmt.Errorf("text-generation service is not configured")
	}

	low := core.LowStockProducts(products)
	if len(low) == 0 {
		return nil, fmt.Errorf("no products are below the low-stock threshold")
	}

	var catalog strings.Builder
	for _, p := range low {
		fmt.Fprintf(&catalog, "- id=%s nome=%q estoque_atual=%d preco=%s\n", p.ID, p.Name, p.Stock, core.FormatBRL(p.Price))
	}

	prompt := fmt.Sprintf(`Você é o assistente de reposição de uma loja de doces.
Sugira um novo nível de estoque para cada produto abaixo do limite de reposição.
Regras:
1. Use SOMENTE os ids de produto listados abaixo.
2. suggested_stock é o nível total após a reposição, nunca negativo.
3. Explique brevemente cada sugestão.

Produtos com estoque baixo:
%s`, catalog.String())

	schemaJSON, err := json.Marshal(generateRestockSchema())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}

	resp, err := a.client.Responses.New(ctx, responses.ResponseNewParams{
		Model: shared.ResponsesModel(shared.ChatModelGPT4o),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "restock_proposal",
					Strict:      param.NewOpt(true),
					Schema:      schemaMap,
					Description: param.NewOpt("A replenishment plan for low-stock products"),
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai responses error: %w", err)
	}

	content := resp.OutputText()
	if content == "" {
		return nil, fmt.Errorf("empty response content")
	}

	var proposal core.RestockProposal
	if err := json.Unmarshal([]byte(content), &proposal); err != nil {
		return nil, fmt.Errorf("failed to parse completion: %w", err)
	}

	proposal.Normalize()
	if err := proposal.Validate(products); err != nil {
		return nil, fmt.Errorf("restock proposal validation failed: %w", err)
	}
	return &proposal, nil
}

// buildStoreContext renders the fixed-shape snapshot that precedes every
// insights question: low-stock names, received vs pending totals, and the
// collection sizes.
func buildStoreContext(products []core.Product, sales []core.Sale) string {
	rep := core.BuildReport(sales, core.RangeAll, core.FilterAll, time.Now())

	lowNames := "nenhum"
	if low := core.LowStockProducts(products); len(low) > 0 {
		names := make([]string, len(low))
		for i, p := range low {
			names[i] = p.Name
		}
		lowNames = strings.Join(names, ", ")
	}

	var b strings.Builder
	b.WriteString("Você é o assistente de uma loja de doces. Dados atuais da loja:\n")
	fmt.Fprintf(&b, "- Produtos cadastrados: %d\n", len(products))
	fmt.Fprintf(&b, "- Vendas registradas: %d\n", len(sales))
	fmt.Fprintf(&b, "- Total recebido: %s\n", core.FormatBRL(rep.TotalReceived))
	fmt.Fprintf(&b, "- Total pendente (fiado): %s\n", core.FormatBRL(rep.TotalPending))
	fmt.Fprintf(&b, "- Produtos com estoque baixo: %s\n", lowNames)
	b.WriteString("Responda em português, de forma curta e prática.")
	return b.String()
}

func generateRestockSchema() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v core.RestockProposal
	return reflector.Reflect(v)
}
