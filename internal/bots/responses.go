// ABOUTME: Canned bot responses used when the completion gateway can't answer
// ABOUTME: Product copy kept verbatim from the original chat deployment

package bots

import "math/rand"

// cannedResponses is the stock reply pool for the legacy mention path.
var cannedResponses = []string{
	"¡Hola! 👋 ¿Cómo puedo ayudarte?",
	"¡Interesante! Cuéntame más sobre eso.",
	"¿Sabías que soy un bot? 🤖",
	"¡Genial! Me gusta esta conversación.",
	"Hmm, déjame pensar en eso... 🤔",
	"¡Excelente pregunta! No tengo idea. 😅",
	"¿Has probado apagarlo y encenderlo de nuevo?",
	"En mis cálculos, hay un 73.6% de probabilidad de que tengas razón.",
	"¡Error 404: Respuesta inteligente no encontrada! 😄",
	"Beep boop beep! Traducido: \"¡Hola humano!\"",
}

// CannedResponse returns one of the stock replies at random.
func CannedResponse() string {
	return cannedResponses[rand.Intn(len(cannedResponses))]
}

// IsCannedResponse reports whether text is one of the stock replies.
// Used by callers that need to distinguish degraded replies (and by tests).
func IsCannedResponse(text string) bool {
	for _, r := range cannedResponses {
		if r == text {
			return true
		}
	}
	return false
}
