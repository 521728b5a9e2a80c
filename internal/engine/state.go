package engine

// State — состояние машины состояний координатора.
//
// Переходы: Disconnected → Connecting → Connected ⇄ Syncing → Connected;
// из Connected/Connecting возможен переход в Disconnected при потере связи
// или явном Disconnect.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateSyncing
)

// String returns a readable state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateSyncing:
		return "Syncing"
	}
	return "Unknown"
}

// connected reports whether the state counts as connected for SyncStatus.
func (s State) connected() bool {
	return s == StateConnected || s == StateSyncing
}
