package models

import (
	"time"

	"github.com/google/uuid"
)

// Relationship — приём (appointment): связь ровно одного врача и одного пациента.
// Для ядра чата — read-only сущность, определяющая границу авторизации диалога:
// одна связь соответствует ровно одному диалогу (1:1 по ID).
type Relationship struct {
	ID        uuid.UUID `bson:"_id"`
	DoctorID  uuid.UUID `bson:"doctor_id"`
	PatientID uuid.UUID `bson:"patient_id"`
	CreatedAt time.Time `bson:"created_at"`
}

// Participant сообщает, входит ли пара (identity, role) в состав связи.
// Роли responder/admin не дают доступа к диалогу.
func (r Relationship) Participant(id uuid.UUID, role Role) bool {
	switch role {
	case RoleDoctor:
		return r.DoctorID == id
	case RolePatient:
		return r.PatientID == id
	}

	return false
}
