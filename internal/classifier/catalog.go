package classifier

import (
	"fmt"
	"strconv"
)

// Catalog maps classifier class labels to crop names.
type Catalog map[int]string

// DefaultCatalog is the label set the soil classifier was trained on.
func DefaultCatalog() Catalog {
	return Catalog{
		1:  "rice",
		2:  "maize",
		3:  "jute",
		4:  "cotton",
		5:  "coconut",
		6:  "papaya",
		7:  "orange",
		8:  "apple",
		9:  "muskmelon",
		10: "watermelon",
		11: "grapes",
		12: "mango",
		13: "banana",
		14: "pomegranate",
		15: "lentil",
		16: "blackgram",
		17: "mungbean",
		18: "mothbeans",
		19: "pigeonpeas",
		20: "kidneybeans",
		21: "chickpea",
		22: "coffee",
	}
}

// catalogFromJSON converts {"1": "rice", ...} into a Catalog.
func catalogFromJSON(raw map[string]string) (Catalog, error) {
	c := make(Catalog, len(raw))
	for k, name := range raw {
		label, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("catalog key %q is not an integer label", k)
		}
		if name == "" {
			return nil, fmt.Errorf("catalog label %d has an empty name", label)
		}
		c[label] = name
	}
	return c, nil
}

func (c Catalog) Name(label int) (string, error) {
	name, ok := c[label]
	if !ok {
		return "", fmt.Errorf("class label %d is not in the crop catalog", label)
	}
	return name, nil
}
