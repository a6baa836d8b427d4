package table

import "fmt"

func toDebugString(v any) string {
	return fmt.Sprint(v)
}
