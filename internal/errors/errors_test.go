package errors_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	svcErr "github.com/sparkmatch/discovery/internal/errors"
)

func TestMap_Classification(t *testing.T) {
	assert.Nil(t, svcErr.Map(nil))

	assert.Equal(t, svcErr.KindNotFound, svcErr.KindOf(svcErr.Map(gorm.ErrRecordNotFound)))
	assert.Equal(t, svcErr.KindConflict, svcErr.KindOf(svcErr.Map(gorm.ErrDuplicatedKey)))
	assert.Equal(t, svcErr.KindTransient, svcErr.KindOf(svcErr.Map(context.DeadlineExceeded)))
	assert.Equal(t, svcErr.KindTransient, svcErr.KindOf(svcErr.Map(context.Canceled)))
	assert.Equal(t, svcErr.KindInternal, svcErr.KindOf(svcErr.Map(fmt.Errorf("driver exploded"))))
}

func TestMap_KeepsClassifiedErrors(t *testing.T) {
	err := svcErr.Validation("age_min must not exceed age_max")
	assert.Equal(t, err, svcErr.Map(err))

	wrapped := fmt.Errorf("handler: %w", err)
	assert.Equal(t, svcErr.KindValidation, svcErr.KindOf(svcErr.Map(wrapped)))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, svcErr.HTTPStatus(svcErr.Validation("bad")))
	assert.Equal(t, http.StatusNotFound, svcErr.HTTPStatus(svcErr.NotFound("missing")))
	assert.Equal(t, http.StatusConflict, svcErr.HTTPStatus(svcErr.Conflict("dup")))
	assert.Equal(t, http.StatusServiceUnavailable, svcErr.HTTPStatus(svcErr.Transient("db down", nil)))
	assert.Equal(t, http.StatusInternalServerError, svcErr.HTTPStatus(fmt.Errorf("unclassified")))
}
