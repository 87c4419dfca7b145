package persona

// Persona captures the assistant's fixed role-playing attributes. It is
// configuration data: the dialog core never branches on its contents.
type Persona struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	SystemInstruction string `json:"systemInstruction"`
	RefusalLine       string `json:"refusalLine"`
}

// Default returns the shop assistant persona used when no override is
// configured.
func Default() Persona {
	return Persona{
		ID:   "mecanico-experto",
		Name: "Asistente de Repuestos",
		SystemInstruction: "Eres un asistente experto en repuestos de motos, especializado en modelos " +
			"de baja y media cilindrada. Responde de forma profesional y técnica. Si te preguntan por " +
			"otro tema, responde: 'Lo siento, mi conocimiento se limita a los repuestos de motos.'",
		RefusalLine: "Lo siento, mi conocimiento se limita a los repuestos de motos.",
	}
}
