package index

import (
	"fmt"

	"arf/arferr"
)

var errNoTxScope = fmt.Errorf("%w: unit has no transaction scope", arferr.ErrType)
