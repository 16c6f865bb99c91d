package flags

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/pflag"
)

const (
	toggleTrueCanonicalValue          = "true"
	toggleFalseCanonicalValue         = "false"
	toggleValueType                   = "bool"
	toggleParseErrorTemplate          = "invalid toggle value %q: expected yes or no"
	toggleTruePlaceholderConstant     = "<YES|no>"
	toggleFalsePlaceholderConstant    = "<yes|NO>"
	toggleUsageTemplate               = "`%s` %s"
	toggleUsageBareTemplate           = "`%s`"
	longFlagPrefixConstant            = "--"
	shortFlagPrefixConstant           = "-"
	flagValueSeparatorConstant        = "="
	argumentTerminatorConstant        = "--"
	shorthandLengthConstant           = 1
	consumedSingleArgumentConstant    = 1
	consumedArgumentPairConstant      = 2
	notToggleArgumentConsumedConstant = 0
)

var (
	toggleLiteralValues = map[string]bool{
		"true":  true,
		"yes":   true,
		"y":     true,
		"on":    true,
		"1":     true,
		"false": false,
		"no":    false,
		"n":     false,
		"off":   false,
		"0":     false,
	}

	toggleRegistryMutex  sync.RWMutex
	toggleRegisteredKeys = map[string]struct{}{}
)

// AddToggleFlag registers a boolean flag that accepts yes/no style values, such as --managed no.
func AddToggleFlag(flagSet *pflag.FlagSet, target *bool, name string, shorthand string, defaultValue bool, usage string) {
	if flagSet == nil || len(name) == 0 {
		return
	}

	value := &toggleFlagValue{currentValue: defaultValue, target: target}
	if target != nil {
		*target = defaultValue
	}

	registeredFlag := flagSet.VarPF(value, name, shorthand, usage)
	registeredFlag.NoOptDefVal = toggleTrueCanonicalValue
	registeredFlag.Usage = formatToggleUsage(usage, defaultValue)

	toggleRegistryMutex.Lock()
	defer toggleRegistryMutex.Unlock()
	toggleRegisteredKeys[longFlagPrefixConstant+name] = struct{}{}
	if len(shorthand) > 0 {
		toggleRegisteredKeys[shortFlagPrefixConstant+shorthand] = struct{}{}
	}
}

// ParseToggleValue interprets yes/no style literals.
func ParseToggleValue(rawValue string) (bool, error) {
	normalizedValue := strings.ToLower(strings.TrimSpace(rawValue))
	if len(normalizedValue) == 0 {
		return true, nil
	}
	parsedValue, known := toggleLiteralValues[normalizedValue]
	if !known {
		return false, fmt.Errorf(toggleParseErrorTemplate, rawValue)
	}
	return parsedValue, nil
}

// NormalizeToggleArguments rewrites "--flag value" into "--flag=value" for registered toggle flags so that
// pflag does not treat the value as a positional argument.
func NormalizeToggleArguments(arguments []string) []string {
	if len(arguments) == 0 {
		return nil
	}

	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); {
		current := arguments[index]
		if current == argumentTerminatorConstant {
			normalized = append(normalized, arguments[index:]...)
			break
		}

		joined, consumed := joinToggleArgument(arguments, index)
		if consumed == notToggleArgumentConsumedConstant {
			normalized = append(normalized, current)
			index++
			continue
		}
		normalized = append(normalized, joined)
		index += consumed
	}

	return normalized
}

func joinToggleArgument(arguments []string, index int) (string, int) {
	current := arguments[index]
	flagKey, hasInlineValue := toggleFlagKey(current)
	if len(flagKey) == 0 || !isRegisteredToggle(flagKey) {
		return "", notToggleArgumentConsumedConstant
	}
	if hasInlineValue || index+1 >= len(arguments) {
		return current, consumedSingleArgumentConstant
	}
	nextValue := arguments[index+1]
	if strings.HasPrefix(nextValue, shortFlagPrefixConstant) {
		return current, consumedSingleArgumentConstant
	}
	if _, parseError := ParseToggleValue(nextValue); parseError != nil {
		return current, consumedSingleArgumentConstant
	}
	return current + flagValueSeparatorConstant + nextValue, consumedArgumentPairConstant
}

func toggleFlagKey(argument string) (string, bool) {
	name, _, hasInlineValue := strings.Cut(argument, flagValueSeparatorConstant)
	switch {
	case strings.HasPrefix(name, longFlagPrefixConstant):
		if len(name) == len(longFlagPrefixConstant) {
			return "", false
		}
		return name, hasInlineValue
	case strings.HasPrefix(name, shortFlagPrefixConstant):
		if len(name) != len(shortFlagPrefixConstant)+shorthandLengthConstant {
			return "", false
		}
		return name, hasInlineValue
	default:
		return "", false
	}
}

func isRegisteredToggle(flagKey string) bool {
	toggleRegistryMutex.RLock()
	defer toggleRegistryMutex.RUnlock()
	_, registered := toggleRegisteredKeys[flagKey]
	return registered
}

func formatToggleUsage(description string, defaultValue bool) string {
	placeholder := toggleFalsePlaceholderConstant
	if defaultValue {
		placeholder = toggleTruePlaceholderConstant
	}
	trimmedDescription := strings.TrimSpace(description)
	if len(trimmedDescription) == 0 {
		return fmt.Sprintf(toggleUsageBareTemplate, placeholder)
	}
	return fmt.Sprintf(toggleUsageTemplate, placeholder, trimmedDescription)
}

type toggleFlagValue struct {
	currentValue bool
	target       *bool
}

func (value *toggleFlagValue) Set(rawValue string) error {
	parsedValue, parseError := ParseToggleValue(rawValue)
	if parseError != nil {
		return parseError
	}
	value.currentValue = parsedValue
	if value.target != nil {
		*value.target = parsedValue
	}
	return nil
}

func (value *toggleFlagValue) String() string {
	if value == nil || !value.currentValue {
		return toggleFalseCanonicalValue
	}
	return toggleTrueCanonicalValue
}

func (value *toggleFlagValue) Type() string {
	return toggleValueType
}
