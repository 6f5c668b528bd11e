package live

// Phase is the connection phase of the assistant's current session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseConnecting
	PhaseActive
	PhaseClosed
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseConnecting:
		return "connecting"
	case PhaseActive:
		return "active"
	case PhaseClosed:
		return "closed"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Status line texts shown to the customer.
const (
	StatusIdle       = "Clique para falar com o assistente do Paulo Jorge."
	StatusConnecting = "Conectando ao PJ Assistente..."
	StatusListening  = "Ouvindo... Como podemos cuidar do seu visual hoje?"
	StatusEnded      = "Atendimento encerrado."
	StatusProcessing = "Processando sua mensagem..."
)

// IdleTextReply answers a typed message sent while no call is running.
const IdleTextReply = "Recebi sua mensagem! Inicie a chamada de voz para eu te ajudar a agendar agora mesmo."
