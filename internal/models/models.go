package models

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&SchoolYear{},
		&Semester{},
		&Subject{},
		&User{},
		&Course{},
		&Student{},
		&Guardian{},
		&FamilyInfo{},
		&Enrollment{},
		&Grade{},
		&Attendance{},
		&ActivityLog{},
		&UploadRecord{},
	}
}
