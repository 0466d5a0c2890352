package providers

import (
	"fmt"
	"streakd/internal/structures"
	"time"

	"github.com/gookit/validate"
)

func init() {
	validate.AddValidator("timezone", func(val any) bool {
		name, ok := val.(string)
		if !ok {
			return false
		}
		_, err := time.LoadLocation(name)
		return err == nil
	})
}

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

func (cv *CnfValidator) Validate() error {
	v := validate.Struct(cv.conf)
	if !v.Validate() {
		return fmt.Errorf("invalid config: %s", v.Errors.One())
	}
	return nil
}
