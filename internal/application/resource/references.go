package resource

import (
	"context"

	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
)

// ScopedReferences rejects a write whose referenced ids are not records of
// the writer's enterprise. Entities that are not a shared.Referrer pass.
func ScopedReferences[T any](checker shared.ReferenceChecker) Hook[T] {
	return func(ctx context.Context, scope shared.Scope, entity *T, _ Operation) error {
		referrer, ok := any(entity).(shared.Referrer)
		if !ok {
			return nil
		}
		var problems []shared.FieldProblem
		reported := make(map[string]bool)
		for _, ref := range referrer.References() {
			if reported[ref.Field] {
				continue
			}
			missing, err := checker.Missing(ctx, scope, ref)
			if err != nil {
				return err
			}
			if len(missing) > 0 {
				reported[ref.Field] = true
				problems = append(problems, shared.FieldProblem{Field: ref.Field, Message: "Referenced record not found"})
			}
		}
		if len(problems) > 0 {
			return shared.NewValidationError("Referenced record not found", problems...)
		}
		return nil
	}
}
