// ABOUTME: Tests for command classification
// ABOUTME: Covers exact-match precedence, case folding and the greeting substring rule

package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		input string
		want  Command
	}{
		{"exit", CommandExit},
		{"  EXIT  ", CommandExit},
		{"Salir", CommandExit},
		{"quit", CommandExit},
		{"adios", CommandExit},
		{"exit now", CommandPassthrough},
		{"clear", CommandClearHistory},
		{"LIMPIAR", CommandClearHistory},
		{"please clear", CommandPassthrough},
		{"/help", CommandHelp},
		{" /HELP ", CommandHelp},
		{"help", CommandPassthrough},
		{"Hola", CommandGreeting},
		{"hola, ¿qué tal?", CommandGreeting},
		{"chocolate", CommandPassthrough},
		{"¡HOLA!", CommandGreeting},
		{"escuela holandesa", CommandGreeting},
		{"¿Cuál es la capital de Francia?", CommandPassthrough},
		{"", CommandPassthrough},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.input))
		})
	}
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "exit", CommandExit.String())
	assert.Equal(t, "clear_history", CommandClearHistory.String())
	assert.Equal(t, "help", CommandHelp.String())
	assert.Equal(t, "greeting", CommandGreeting.String())
	assert.Equal(t, "passthrough", CommandPassthrough.String())
}
