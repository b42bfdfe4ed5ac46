package models

// Scope is a flat permission identifier. There is no hierarchy.
type Scope struct {
	Identifier  string `gorm:"primaryKey" json:"identifier"`
	Description string `json:"description"`
}

func (Scope) TableName() string {
	return "scopes"
}
