package preferences

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Interests is a JSON-encoded list of free-form keyword strings
type Interests []string

// Value implements driver.Valuer for JSONB storage
func (i Interests) Value() (driver.Value, error) {
	if i == nil {
		return "[]", nil
	}
	b, err := json.Marshal(i)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for JSONB storage
func (i *Interests) Scan(src interface{}) error {
	if src == nil {
		*i = Interests{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported interests type %T", src)
	}
	if len(data) == 0 {
		*i = Interests{}
		return nil
	}
	return json.Unmarshal(data, i)
}

// Preference is a user's discovery filter set
type Preference struct {
	UserID           int64     `json:"user_id" db:"user_id"`
	MinAge           int       `json:"min_age" db:"min_age"`
	MaxAge           int       `json:"max_age" db:"max_age"`
	Distance         int       `json:"distance" db:"distance"`
	GenderPreference string    `json:"gender_preference" db:"gender_preference"`
	Interests        Interests `json:"interests" db:"interests"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// UpdatePreferenceDTO is the payload for a preference update.
// All fields are required: the service boundary always receives a complete record.
type UpdatePreferenceDTO struct {
	MinAge           int      `json:"min_age" validate:"required,min=18,max=100"`
	MaxAge           int      `json:"max_age" validate:"required,min=18,max=100,gtefield=MinAge"`
	Distance         int      `json:"distance" validate:"required,min=1,max=500"`
	GenderPreference string   `json:"gender_preference" validate:"required,oneof=male female non-binary any"`
	Interests        []string `json:"interests"`
}
