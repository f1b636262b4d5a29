package active

import (
	"context"

	"github.com/pyneda/sukyan-fileupload/pkg/http_utils"
)

type ActiveModuleOptions struct {
	Ctx         context.Context
	Concurrency int
	Sender      http_utils.Sender
}
