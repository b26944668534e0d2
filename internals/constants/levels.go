package constants

// AcademicLevels is the fixed set of levels the chapel tracks attendance for.
// Every absentee document is partitioned by one of these.
var AcademicLevels = []int{100, 200, 300, 400, 500}

func IsValidLevel(level int) bool {
	for _, l := range AcademicLevels {
		if l == level {
			return true
		}
	}
	return false
}
