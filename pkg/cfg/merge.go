package cfg

// mergeMaps merges right into left recursively, right side wins on
// conflicting scalar values.
func mergeMaps(left map[string]any, right map[string]any) map[string]any {
	out := make(map[string]any, len(left)+len(right))

	for k, v := range left {
		out[k] = v
	}

	for k, rv := range right {
		lv, ok := out[k]
		if !ok {
			out[k] = rv

			continue
		}

		lm, leftIsMap := lv.(map[string]any)
		rm, rightIsMap := rv.(map[string]any)

		if leftIsMap && rightIsMap {
			out[k] = mergeMaps(lm, rm)

			continue
		}

		out[k] = rv
	}

	return out
}
