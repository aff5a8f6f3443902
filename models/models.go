package models

// All returns every model in migration order
func All() []interface{} {
	return []interface{}{
		&User{},
		&Property{},
		&Meter{},
		&Reading{},
		&CorrectionRequest{},
		&PasswordResetToken{},
		&PropertyTenant{},
	}
}
