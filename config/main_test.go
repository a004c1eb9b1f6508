package config

import (
	"os"
	"testing"

	"github.com/gbd-solar/solartech-api/tests/testutil"
)

func TestMain(m *testing.M) {
	os.Exit(testutil.RunTests(m))
}
