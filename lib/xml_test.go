package svn

import (
	"errors"
	"reflect"
	"testing"
)

const moveLogXML = `<?xml version="1.0" encoding="UTF-8"?>
<log>
<logentry revision="42">
<author>alice</author>
<date>2013-07-01T12:00:00.000000Z</date>
<paths>
<path action="A" copyfrom-path="/a.txt" copyfrom-rev="41" kind="">/b.txt</path>
<path action="D" kind="">/a.txt</path>
</paths>
<msg>move a to b</msg>
</logentry>
</log>
`

const emptyLogXML = `<?xml version="1.0" encoding="UTF-8"?>
<log>
<logentry revision="7">
<msg>property tweak recorded without paths</msg>
</logentry>
</log>
`

func TestDecodeLog(t *testing.T) {
	entry, err := DecodeLog([]byte(moveLogXML))
	if err != nil {
		t.Fatalf("DecodeLog: %v", err)
	}
	if entry.Rev != 42 {
		t.Errorf("rev = %d, want 42", entry.Rev)
	}
	want := []*RawPath{
		{Path: "/b.txt", Action: ActionAdd, CopyFromPath: "/a.txt", CopyFromRev: 41},
		{Path: "/a.txt", Action: ActionDelete},
	}
	if !reflect.DeepEqual(entry.Paths, want) {
		t.Errorf("paths = %+v, want %+v", entry.Paths, want)
	}
}

func TestDecodeLogNoPaths(t *testing.T) {
	entry, err := DecodeLog([]byte(emptyLogXML))
	if err != nil {
		t.Fatalf("DecodeLog: %v", err)
	}
	if entry.Rev != 7 || len(entry.Paths) != 0 {
		t.Errorf("got rev %d with %d paths, want empty r7", entry.Rev, len(entry.Paths))
	}
}

func TestDecodeLogBadAction(t *testing.T) {
	const bad = `<log><logentry revision="9"><paths>` +
		`<path action="X">/thing</path></paths></logentry></log>`
	_, err := DecodeLog([]byte(bad))
	if !errors.Is(err, ErrProtocol) {
		t.Errorf("err = %v, want ErrProtocol", err)
	}
}

func TestDecodeLogWrongEntryCount(t *testing.T) {
	const two = `<log><logentry revision="1"/><logentry revision="2"/></log>`
	_, err := DecodeLog([]byte(two))
	if !errors.Is(err, ErrProtocol) {
		t.Errorf("err = %v, want ErrProtocol", err)
	}
}

const flatListXML = `<?xml version="1.0" encoding="UTF-8"?>
<lists>
<list path="https://svn.example.com/repo/with%20space@10">
<entry kind="file"><name>a.c</name><size>12</size></entry>
<entry kind="dir"><name>sub</name></entry>
</list>
<list path="https://svn.example.com/repo/other@11">
<entry kind="file"><name>b.c</name></entry>
</list>
</lists>
`

func TestDecodeFlatList(t *testing.T) {
	groups, err := DecodeFlatList([]byte(flatListXML))
	if err != nil {
		t.Fatalf("DecodeFlatList: %v", err)
	}
	want := []ListGroup{
		{
			Path: "https://svn.example.com/repo/with space@10",
			Entries: []ListEntry{
				{Name: "a.c", Kind: KindFile},
				{Name: "sub", Kind: KindDirectory},
			},
		},
		{
			Path:    "https://svn.example.com/repo/other@11",
			Entries: []ListEntry{{Name: "b.c", Kind: KindFile}},
		},
	}
	if !reflect.DeepEqual(groups, want) {
		t.Errorf("groups = %+v, want %+v", groups, want)
	}
}

func TestDecodeFlatListBadKind(t *testing.T) {
	const bad = `<lists><list path="x">` +
		`<entry kind="symlink"><name>s</name></entry></list></lists>`
	_, err := DecodeFlatList([]byte(bad))
	if !errors.Is(err, ErrProtocol) {
		t.Errorf("err = %v, want ErrProtocol", err)
	}
}

const recursiveListXML = `<?xml version="1.0" encoding="UTF-8"?>
<lists>
<list path="https://svn.example.com/repo/lib@41">
<entry kind="file"><name>a.c</name></entry>
<entry kind="dir"><name>sub</name></entry>
<entry kind="file"><name>sub/b.c</name></entry>
</list>
</lists>
`

func TestDecodeRecursiveList(t *testing.T) {
	entries, err := DecodeRecursiveList([]byte(recursiveListXML))
	if err != nil {
		t.Fatalf("DecodeRecursiveList: %v", err)
	}
	want := []ListEntry{
		{Name: "a.c", Kind: KindFile},
		{Name: "sub", Kind: KindDirectory},
		{Name: "sub/b.c", Kind: KindFile},
	}
	if !reflect.DeepEqual(entries, want) {
		t.Errorf("entries = %+v, want %+v", entries, want)
	}
}

func TestDecodeRecursiveListCount(t *testing.T) {
	_, err := DecodeRecursiveList([]byte(`<lists></lists>`))
	if !errors.Is(err, ErrProtocol) {
		t.Errorf("err = %v, want ErrProtocol", err)
	}
}
