package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/jhoicas/pos-stock-engine/internal/domain/entity"
	"github.com/jhoicas/pos-stock-engine/pkg/logger"
	"github.com/shopspring/decimal"
)

// DefaultAlertRule alerta clásica de punto de reorden.
const DefaultAlertRule = "reorder_level > 0.0 && quantity <= reorder_level"

// AlertRule regla CEL compilada.
type AlertRule struct {
	Expr    string
	program cel.Program
}

// AlertEvaluator evalúa reglas CEL sobre cada cambio de ledger. Variables disponibles:
// product_id, event_type, movement_type (string) y quantity, previous, delta, reorder_level (double).
type AlertEvaluator struct {
	rules    []AlertRule
	notifier Notifier
	log      *logger.Logger
}

func alertEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("product_id", cel.StringType),
		cel.Variable("event_type", cel.StringType),
		cel.Variable("movement_type", cel.StringType),
		cel.Variable("quantity", cel.DoubleType),
		cel.Variable("previous", cel.DoubleType),
		cel.Variable("delta", cel.DoubleType),
		cel.Variable("reorder_level", cel.DoubleType),
	)
}

// CompileAlertRules compila las expresiones; una expresión inválida o que no devuelva bool es error.
func CompileAlertRules(exprs []string) ([]AlertRule, error) {
	env, err := alertEnv()
	if err != nil {
		return nil, fmt.Errorf("crear entorno CEL: %w", err)
	}
	rules := make([]AlertRule, 0, len(exprs))
	for _, expr := range exprs {
		ast, iss := env.Compile(expr)
		if iss != nil && iss.Err() != nil {
			return nil, fmt.Errorf("regla %q: %w", expr, iss.Err())
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return nil, fmt.Errorf("regla %q: debe devolver bool, devuelve %s", expr, ast.OutputType())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("regla %q: %w", expr, err)
		}
		rules = append(rules, AlertRule{Expr: expr, program: prg})
	}
	return rules, nil
}

// NewAlertEvaluator compila las reglas (DefaultAlertRule si no hay ninguna).
func NewAlertEvaluator(exprs []string, notifier Notifier, log *logger.Logger) (*AlertEvaluator, error) {
	if len(exprs) == 0 {
		exprs = []string{DefaultAlertRule}
	}
	rules, err := CompileAlertRules(exprs)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	return &AlertEvaluator{rules: rules, notifier: notifier, log: log.Component("alerts")}, nil
}

// Handle evalúa las reglas en inventory.changed y notifica cada regla que se cumple.
func (a *AlertEvaluator) Handle(ctx context.Context, e entity.StockEvent) error {
	if e.Type != entity.EventInventoryChanged {
		return nil
	}
	var p entity.LedgerEventPayload
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		a.log.Warn().Err(err).Str("event_id", e.ID).Msg("payload de ledger ilegible, se omite")
		return nil
	}
	vars := map[string]any{
		"product_id":    p.ProductID,
		"event_type":    e.Type,
		"movement_type": p.MovementType,
		"quantity":      toFloat(p.Quantity),
		"previous":      toFloat(p.Previous),
		"delta":         toFloat(p.Delta),
		"reorder_level": toFloat(p.ReorderLevel),
	}
	matched, err := a.Evaluate(vars)
	if err != nil {
		return err
	}
	for _, expr := range matched {
		a.log.Info().Str("product_id", p.ProductID).Str("rule", expr).Str("quantity", p.Quantity).Msg("regla de alerta cumplida")
		if a.notifier == nil {
			continue
		}
		n := Notification{
			Kind:        "alert",
			AggregateID: p.ProductID,
			EventID:     e.ID,
			Message:     fmt.Sprintf("Producto %s: se cumple la regla %s", p.ProductID, expr),
			Data:        map[string]any{"rule": expr, "quantity": p.Quantity, "reorder_level": p.ReorderLevel},
		}
		if err := a.notifier.Notify(ctx, n); err != nil {
			return fmt.Errorf("notificar alerta: %w", err)
		}
	}
	return nil
}

// Evaluate devuelve las expresiones que resultan true para vars.
func (a *AlertEvaluator) Evaluate(vars map[string]any) ([]string, error) {
	var matched []string
	for _, r := range a.rules {
		out, _, err := r.program.Eval(vars)
		if err != nil {
			return nil, fmt.Errorf("evaluar %q: %w", r.Expr, err)
		}
		if ok, _ := out.Value().(bool); ok {
			matched = append(matched, r.Expr)
		}
	}
	return matched, nil
}

func toFloat(s string) float64 {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}
