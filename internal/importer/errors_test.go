package importer

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsUserError(t *testing.T) {
	_, err := NewCSVParser(DefaultOptions()).Parse(strings.NewReader("x\n1\n"))
	assert.True(t, IsUserError(err))

	_, err = NewPDFParser(DefaultOptions()).Parse(strings.NewReader("not a pdf"))
	assert.True(t, IsUserError(err))

	assert.True(t, IsUserError(fmt.Errorf("page 2: %w", ErrNoTable)))
	assert.False(t, IsUserError(os.ErrPermission))
	assert.False(t, IsUserError(nil))
}
