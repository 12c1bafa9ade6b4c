package world

import (
	"fmt"

	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// Predicate reports whether an entity matches a parsed filter expression.
type Predicate func(*Entity) bool

// EntityDeclarations returns the field declarations for entity filtering.
func EntityDeclarations() (*filtering.Declarations, error) {
	return filtering.NewDeclarations(
		filtering.DeclareStandardFunctions(),
		filtering.DeclareIdent("kind", filtering.TypeString),
		filtering.DeclareIdent("faction", filtering.TypeString),
		filtering.DeclareIdent("name", filtering.TypeString),
		filtering.DeclareIdent("alive", filtering.TypeBool),
		filtering.DeclareIdent("health", filtering.TypeInt),
		filtering.DeclareIdent("max_health", filtering.TypeInt),
	)
}

// ParseEntityFilter parses an AIP-160 filter expression into a predicate.
// An empty filter string matches every entity.
func ParseEntityFilter(filterStr string) (Predicate, error) {
	if filterStr == "" {
		return func(*Entity) bool { return true }, nil
	}

	decls, err := EntityDeclarations()
	if err != nil {
		return nil, fmt.Errorf("create declarations: %w", err)
	}

	filter, err := filtering.ParseFilterString(filterStr, decls)
	if err != nil {
		return nil, fmt.Errorf("parse filter: %w", err)
	}

	return translateExpr(filter.CheckedExpr.Expr)
}

func translateExpr(e *expr.Expr) (Predicate, error) {
	if e == nil {
		return func(*Entity) bool { return true }, nil
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_CallExpr:
		return translateCall(kind.CallExpr)
	default:
		return nil, fmt.Errorf("unsupported expression type: %T", kind)
	}
}

func translateCall(call *expr.Expr_Call) (Predicate, error) {
	switch call.Function {
	case "_&&_", "AND":
		return translateLogical(call.Args, func(l, r bool) bool { return l && r })
	case "_||_", "OR":
		return translateLogical(call.Args, func(l, r bool) bool { return l || r })
	case "_==_", "=":
		return translateComparison(call.Args, "=")
	case "_!=_", "!=":
		return translateComparison(call.Args, "!=")
	case "_<_", "<":
		return translateComparison(call.Args, "<")
	case "_<=_", "<=":
		return translateComparison(call.Args, "<=")
	case "_>_", ">":
		return translateComparison(call.Args, ">")
	case "_>=_", ">=":
		return translateComparison(call.Args, ">=")
	default:
		return nil, fmt.Errorf("unsupported function: %s", call.Function)
	}
}

func translateLogical(args []*expr.Expr, combine func(l, r bool) bool) (Predicate, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("logical operator requires 2 arguments")
	}

	left, err := translateExpr(args[0])
	if err != nil {
		return nil, err
	}
	right, err := translateExpr(args[1])
	if err != nil {
		return nil, err
	}

	return func(e *Entity) bool {
		return combine(left(e), right(e))
	}, nil
}

func translateComparison(args []*expr.Expr, op string) (Predicate, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("comparison requires 2 arguments")
	}

	field, err := extractFieldName(args[0])
	if err != nil {
		return nil, err
	}
	value, err := extractValue(args[1])
	if err != nil {
		return nil, err
	}

	switch field {
	case "kind":
		return stringPredicate(op, value, func(e *Entity) string { return e.Kind.String() })
	case "faction":
		return stringPredicate(op, value, func(e *Entity) string { return e.Faction.String() })
	case "name":
		return stringPredicate(op, value, func(e *Entity) string { return e.Name })
	case "alive":
		return boolPredicate(op, value, func(e *Entity) bool { return e.Alive })
	case "health":
		return intPredicate(op, value, func(e *Entity) int64 { return int64(e.Health) })
	case "max_health":
		return intPredicate(op, value, func(e *Entity) int64 { return int64(e.MaxHealth) })
	default:
		return nil, fmt.Errorf("unknown field: %s", field)
	}
}

func stringPredicate(op string, value any, get func(*Entity) string) (Predicate, error) {
	want, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("string field requires string value, got %T", value)
	}
	switch op {
	case "=":
		return func(e *Entity) bool { return get(e) == want }, nil
	case "!=":
		return func(e *Entity) bool { return get(e) != want }, nil
	default:
		return nil, fmt.Errorf("operator %s not supported for string fields", op)
	}
}

func boolPredicate(op string, value any, get func(*Entity) bool) (Predicate, error) {
	want, ok := value.(bool)
	if !ok {
		return nil, fmt.Errorf("bool field requires bool value, got %T", value)
	}
	switch op {
	case "=":
		return func(e *Entity) bool { return get(e) == want }, nil
	case "!=":
		return func(e *Entity) bool { return get(e) != want }, nil
	default:
		return nil, fmt.Errorf("operator %s not supported for bool fields", op)
	}
}

func intPredicate(op string, value any, get func(*Entity) int64) (Predicate, error) {
	var want int64
	switch v := value.(type) {
	case int64:
		want = v
	case uint64:
		want = int64(v)
	default:
		return nil, fmt.Errorf("int field requires integer value, got %T", value)
	}
	switch op {
	case "=":
		return func(e *Entity) bool { return get(e) == want }, nil
	case "!=":
		return func(e *Entity) bool { return get(e) != want }, nil
	case "<":
		return func(e *Entity) bool { return get(e) < want }, nil
	case "<=":
		return func(e *Entity) bool { return get(e) <= want }, nil
	case ">":
		return func(e *Entity) bool { return get(e) > want }, nil
	case ">=":
		return func(e *Entity) bool { return get(e) >= want }, nil
	default:
		return nil, fmt.Errorf("unsupported operator: %s", op)
	}
}

func extractFieldName(e *expr.Expr) (string, error) {
	if e == nil {
		return "", fmt.Errorf("nil expression")
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_IdentExpr:
		return kind.IdentExpr.Name, nil
	default:
		return "", fmt.Errorf("expected identifier, got %T", kind)
	}
}

func extractValue(e *expr.Expr) (any, error) {
	if e == nil {
		return nil, fmt.Errorf("nil expression")
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_ConstExpr:
		return extractConstValue(kind.ConstExpr)
	default:
		return nil, fmt.Errorf("expected constant, got %T", kind)
	}
}

func extractConstValue(c *expr.Constant) (any, error) {
	if c == nil {
		return nil, fmt.Errorf("nil constant")
	}

	switch kind := c.ConstantKind.(type) {
	case *expr.Constant_StringValue:
		return kind.StringValue, nil
	case *expr.Constant_Int64Value:
		return kind.Int64Value, nil
	case *expr.Constant_Uint64Value:
		return kind.Uint64Value, nil
	case *expr.Constant_BoolValue:
		return kind.BoolValue, nil
	default:
		return nil, fmt.Errorf("unsupported constant type: %T", kind)
	}
}
