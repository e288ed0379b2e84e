package cell

import (
	"fmt"
)

func preparedKey(cluster string) string {
	return fmt.Sprintf("__gridcore_%s_xa_prepared__", cluster)
}
