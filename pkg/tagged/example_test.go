package tagged_test

import (
	"fmt"

	"github.com/matzehuels/typegraph/pkg/tagged"
)

func ExampleMarshal() {
	v := tagged.Record("Model",
		tagged.FieldVal("name", tagged.String("foobar")),
		tagged.FieldVal("self", tagged.Ref("Model", 0)),
	)
	out, _ := tagged.Marshal(v)
	fmt.Println(string(out))
	// Output:
	// {"__type":"Model","__value":{"name":{"__type":"String","__value":"foobar"},"self":{"__type":"ref","__value":{"type":"Model","index":0}}}}
}

func ExampleParse() {
	doc, _ := tagged.Parse([]byte(`[{"__type":"Number","__value":1337},{"__type":"String","__value":"1337"}]`))
	for _, v := range doc.Values() {
		fmt.Println(v.Discriminator(), v.Str()+string(v.Num()))
	}
	// Output:
	// Number 1337
	// String 1337
}
