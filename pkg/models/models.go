package models

// Tables lists every persisted model in the order AutoMigrate should create
// them: calls first, then the rows that hang off them.
func Tables() []any {
	return []any{
		&Call{},
		&CallPacket{},
		&CallAIResult{},
	}
}
