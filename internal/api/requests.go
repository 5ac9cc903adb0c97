package api

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	imagepkg "github.com/lpcrm/reminder-poster/internal/image"
	"github.com/lpcrm/reminder-poster/internal/poster"
)

type updateRequest struct {
	StudentName *string          `json:"student_name" binding:"omitempty,max=80"`
	Gender      *poster.Gender   `json:"gender"`
	AgeRange    *poster.AgeRange `json:"age_range"`
	ClassLink   *string          `json:"class_link" binding:"omitempty,max=2048"`
}

type timeRequest struct {
	Time string `json:"time" binding:"required,clock"`
}

type exportRequest struct {
	Width  int `json:"width" binding:"omitempty,min=1,max=1024"`
	Height int `json:"height" binding:"omitempty,min=1,max=1024"`
}

func (r exportRequest) viewport() imagepkg.Viewport {
	return imagepkg.Viewport{Width: r.Width, Height: r.Height}
}

type viewportQuery struct {
	Width  int `form:"width" binding:"omitempty,min=1,max=1024"`
	Height int `form:"height" binding:"omitempty,min=1,max=1024"`
}

func (q viewportQuery) viewport() imagepkg.Viewport {
	return imagepkg.Viewport{Width: q.Width, Height: q.Height}
}

var registerOnce sync.Once

// registerValidators adds the clock tag (24h HH:MM) to gin's validator.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		err := v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
			return poster.ValidClock(fl.Field().String())
		})
		if err != nil {
			panic(fmt.Sprintf("register clock validator: %v", err))
		}
	})
}
