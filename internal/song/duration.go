package song

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseDuration converts "M:SS" or "H:MM:SS" into seconds.
// Anything else yields 0.
func ParseDuration(s string) int {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0
	}

	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0
		}
		nums[i] = n
	}

	if len(nums) == 2 {
		return nums[0]*60 + nums[1]
	}
	return nums[0]*3600 + nums[1]*60 + nums[2]
}

// FormatDuration renders seconds as "M:SS", or "H:MM:SS" from one hour up.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
