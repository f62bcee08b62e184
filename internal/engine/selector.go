package engine

import (
	"strings"

	"github.com/formwell/formwell/internal/schema"
)

// SelectAction maps a discriminator value to a backend action id.
//
// On a mapping miss the rule's policy decides: fallback-default returns the
// rule's default action, strict-throw returns an *UnknownOperationError.
// The policy is schema data, never engine behavior, so a destructive action
// can demand strict selection while a read-only block defaults quietly.
func SelectAction(rule schema.OperationRule, discriminatorValue string) (string, error) {
	value := strings.TrimSpace(discriminatorValue)
	if actionID, ok := rule.Mapping[value]; ok {
		return actionID, nil
	}

	if rule.Policy() == schema.PolicyFallbackDefault {
		return rule.Default, nil
	}
	return "", &UnknownOperationError{
		Value:         value,
		Discriminator: rule.Discriminator,
	}
}
