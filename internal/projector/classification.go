package projector

import (
	"fmt"
	"strings"
)

// ClassificationVersion identifies the layout of DefaultClassification.
// Bump it whenever bucket membership or series rules change.
const ClassificationVersion = 3

// Bucket is a named summary panel and the top-level keys it shows.
type Bucket struct {
	Name string
	Keys []string
}

// Classification is the hand-maintained table that tells the projector
// how to label and partition a statistics record.
type Classification struct {
	Version int

	Buckets     []Bucket
	OtherBucket string

	// StructuralKeys are top-level keys that never appear in a summary bucket.
	StructuralKeys []string

	TitleKey     string
	DialoguesKey string
	DaysKey      string
	WeeksKey     string

	// DateKey holds the shared date labels inside a time-series group.
	DateKey string
	// NonSeriesKeys are group entries never charted.
	NonSeriesKeys []string

	PrimaryMetrics []string

	ReceivedKey   string
	SentKey       string
	InterestLabel string

	ContactDaysKey string
	MinContactDays float64
}

// DefaultClassification returns the canonical table for the analytics
// service's Russian metric names.
func DefaultClassification() Classification {
	return Classification{
		Version: ClassificationVersion,
		Buckets: []Bucket{
			{Name: "Общее", Keys: []string{
				"От даты",
				"Сообщений получено",
				"Сообщений отправлено",
				"Сколько дней общаемся",
				"Сообщений получено в день",
				"Сообщений отправлено в день",
			}},
			{Name: "Фото", Keys: []string{
				"Фото отправлено",
				"Фото отправлено в день",
				"Фото получено",
				"Фото получено в день",
			}},
			{Name: "Аудио", Keys: []string{
				"Аудио отправлено",
				"Аудио отправлено в день",
				"Аудио получено",
				"Аудио получено в день",
				"Ср. длина аудио отправлено",
				"Ср. длина аудио отправлено в день",
				"Ср. длина аудио получено",
				"Ср. длина аудио получено в день",
			}},
			{Name: "Видео", Keys: []string{
				"Видео отправлено",
				"Видео получено",
				"Кружочков отправлено",
				"Кружочков отправлено в день",
				"Кружочков получено",
				"Кружочков получено в день",
				"Ср. длина кружочка отправлено",
				"Ср. длина кружочка отправлено в день",
				"Ср. длина кружочка получено",
				"Ср. длина кружочка получено в день",
				"Ср. длина видео отправлено",
				"Ср. длина видео отправлено в день",
				"Ср. длина видео получено",
				"Ср. длина видео получено в день",
			}},
		},
		OtherBucket: "Разное",
		StructuralKeys: []string{
			"Диалоги",
			"Дни",
			"Недели",
			"Первые сообщения",
			"Рекомендации",
			"Имя",
		},
		TitleKey:     "Имя",
		DialoguesKey: "Диалоги",
		DaysKey:      "Дни",
		WeeksKey:     "Недели",
		DateKey:      "От даты",
		NonSeriesKeys: []string{
			"Среднее длительность диалога (текстом)",
			"Прошло с последнего сообщения от отправителя (часов)",
			"Диалоги",
			"Средняя длительность общения в день (текстом)",
		},
		PrimaryMetrics: []string{
			"Сообщений получено",
			"Текстовых сообщений получено",
			"Сообщений получено в день",
			"Видео получено",
			"Кружочков получено",
			"Кружочков получено в день",
			"Аудио получено",
			"Аудио получено в день",
			"Средняя длительность общения в день",
			"Фото получено",
			"Фото получено в день",
		},
		ReceivedKey:    "Сообщений получено",
		SentKey:        "Сообщений отправлено",
		InterestLabel:  "Интерес по сообщениям",
		ContactDaysKey: "Сколько дней общаемся",
		MinContactDays: 7,
	}
}

// Validate checks the table for mistakes that would break the partition.
func (c Classification) Validate() error {
	var errs []string

	seen := make(map[string]bool)
	for i, b := range c.Buckets {
		name := strings.TrimSpace(b.Name)
		if name == "" {
			errs = append(errs, fmt.Sprintf("bucket %d has no name", i))
			continue
		}
		if seen[name] {
			errs = append(errs, fmt.Sprintf("duplicate bucket %q", name))
		}
		seen[name] = true
	}
	if strings.TrimSpace(c.OtherBucket) == "" {
		errs = append(errs, "other bucket has no name")
	} else if seen[c.OtherBucket] {
		errs = append(errs, fmt.Sprintf("other bucket %q duplicates a named bucket", c.OtherBucket))
	}
	if c.DateKey == "" {
		errs = append(errs, "date key is empty")
	}
	if c.MinContactDays < 0 {
		errs = append(errs, fmt.Sprintf("min contact days must not be negative, got %g", c.MinContactDays))
	}

	if len(errs) > 0 {
		return fmt.Errorf("classification v%d: %s", c.Version, strings.Join(errs, "; "))
	}
	return nil
}

// WithBucketKeys returns a copy with the named bucket's key list replaced.
// Unknown bucket names are appended as new buckets.
func (c Classification) WithBucketKeys(name string, keys []string) Classification {
	buckets := make([]Bucket, len(c.Buckets))
	copy(buckets, c.Buckets)
	for i := range buckets {
		if buckets[i].Name == name {
			buckets[i].Keys = append([]string(nil), keys...)
			c.Buckets = buckets
			return c
		}
	}
	c.Buckets = append(buckets, Bucket{Name: name, Keys: append([]string(nil), keys...)})
	return c
}

func setOf(keys []string) map[string]bool {
	s := make(map[string]bool, len(keys))
	for _, k := range keys {
		s[k] = true
	}
	return s
}
