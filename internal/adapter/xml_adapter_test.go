package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "cleanspring.dev/pkg/cleanspring/internal/model"
)

const beansXML = `<?xml version="1.0" encoding="UTF-8"?>
<beans xmlns="http://www.springframework.org/schema/beans">
    <!-- data source -->
    <bean id="service" class="com.acme.Service">
        <property name="url" value="jdbc:h2:mem"/>
        <property name="repo">
            <ref bean="repo"/>
        </property>
    </bean>
</beans>
`

func TestRawXMLAdapter_ParseDocument(t *testing.T) {
	doc, err := NewRawXMLAdapter().ParseDocument("beans.xml", []byte(beansXML))
	require.NoError(t, err)

	require.NotNil(t, doc.Root)
	assert.Equal(t, "beans", doc.Root.Name)
	require.Len(t, doc.Root.Children, 1)

	bean := doc.Root.Children[0]
	class, ok := bean.Attr("class")
	require.True(t, ok)
	assert.Equal(t, "com.acme.Service", class)
	require.Len(t, bean.Children, 2)

	url := bean.Children[0]
	assert.Equal(t, "property", url.LocalName())
	assert.Equal(t, -1, url.EndNameOffset)
	assert.Equal(t, "property", beansXML[url.NameOffset:url.NameOffset+len("property")])
	assert.Same(t, bean, url.ParentTag())

	repo := bean.Children[1]
	assert.Equal(t, "property", beansXML[repo.EndNameOffset:repo.EndNameOffset+len("property")])
}

func TestRawXMLAdapter_PrintDocument(t *testing.T) {
	adapter := NewRawXMLAdapter()

	t.Run("untouched document prints unchanged", func(t *testing.T) {
		doc, err := adapter.ParseDocument("beans.xml", []byte(beansXML))
		require.NoError(t, err)
		assert.Equal(t, beansXML, string(adapter.PrintDocument(doc)))
	})

	t.Run("renamed tags are spliced in", func(t *testing.T) {
		doc, err := adapter.ParseDocument("beans.xml", []byte(beansXML))
		require.NoError(t, err)

		for _, tag := range doc.Root.Children[0].Children {
			tag.Name = "constructor-arg"
		}

		want := `<?xml version="1.0" encoding="UTF-8"?>
<beans xmlns="http://www.springframework.org/schema/beans">
    <!-- data source -->
    <bean id="service" class="com.acme.Service">
        <constructor-arg name="url" value="jdbc:h2:mem"/>
        <constructor-arg name="repo">
            <ref bean="repo"/>
        </constructor-arg>
    </bean>
</beans>
`
		assert.Equal(t, want, string(adapter.PrintDocument(doc)))
	})
}

func TestRawXMLAdapter_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "empty", src: ""},
		{name: "only prolog", src: `<?xml version="1.0"?>`},
		{name: "stray end tag", src: `</beans>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRawXMLAdapter().ParseDocument(m.Path(tt.name+".xml"), []byte(tt.src))
			require.Error(t, err)
		})
	}
}
