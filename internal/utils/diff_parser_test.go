package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUnifiedDiff_ZeroContext(t *testing.T) {
	diff := `diff --git a/foo.c b/foo.c
index 83db48f..f735c20 100644
--- a/foo.c
+++ b/foo.c
@@ -10,3 +9,0 @@ int main() {
-	a = 1;
-	b = 2;
-	c = 3;
@@ -20 +18,2 @@ int main() {
-	old();
+	first();
+	second();
`

	changes, err := ParseUnifiedDiff(diff)
	require.NoError(t, err)
	require.Len(t, changes, 1)

	fc := changes[0]
	assert.Equal(t, "foo.c", fc.OldPath)
	assert.Equal(t, "foo.c", fc.NewPath)
	assert.False(t, fc.IsRename())
	assert.False(t, fc.Binary)
	assert.Equal(t, []int{10, 11, 12, 20}, fc.DeletedNumbers())
	assert.Equal(t, []int{18, 19}, fc.AddedNumbers())
	assert.Equal(t, "\tb = 2;", fc.Deleted[1].Text)
	assert.Equal(t, "\tsecond();", fc.Added[1].Text)
}

func TestParseUnifiedDiff_WithContextLines(t *testing.T) {
	diff := `diff --git a/bar.py b/bar.py
index 1111111..2222222 100644
--- a/bar.py
+++ b/bar.py
@@ -1,4 +1,4 @@
 def f():
-    return 1
+    return 2
 
 x = f()
`

	changes, err := ParseUnifiedDiff(diff)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, []int{2}, changes[0].DeletedNumbers())
	assert.Equal(t, []int{2}, changes[0].AddedNumbers())
}

func TestFileChange_InPlaceEdits(t *testing.T) {
	diff := `diff --git a/foo.c b/foo.c
index 83db48f..f735c20 100644
--- a/foo.c
+++ b/foo.c
@@ -2,2 +1,0 @@ int main() {
-	a = 1;
-	b = 2;
@@ -5 +3 @@ int main() {
-	return 0;
+	return -1;
@@ -8,0 +7,3 @@ int main() {
+int validate(int n) {
+	return 0;
+}
@@ -12,2 +13 @@ int validate(int n) {
-	x++;
-	y++;
+	x += 2;
`

	changes, err := ParseUnifiedDiff(diff)
	require.NoError(t, err)
	require.Len(t, changes, 1)

	deleted, added := changes[0].InPlaceEdits()
	assert.Equal(t, map[int]bool{5: true, 12: true}, deleted)
	assert.Equal(t, map[int]bool{3: true, 13: true}, added)
}

func TestParseUnifiedDiff_RenameAndNewFile(t *testing.T) {
	diff := `diff --git a/old.c b/new.c
similarity index 90%
rename from old.c
rename to new.c
index 1111111..2222222 100644
--- a/old.c
+++ b/new.c
@@ -3 +3 @@
-x = 1;
+x = 2;
diff --git a/added.c b/added.c
new file mode 100644
index 0000000..3333333
--- /dev/null
+++ b/added.c
@@ -0,0 +1,2 @@
+int a;
+int b;
`

	changes, err := ParseUnifiedDiff(diff)
	require.NoError(t, err)
	require.Len(t, changes, 2)

	renamed := changes[0]
	assert.True(t, renamed.IsRename())
	assert.Equal(t, "old.c", renamed.OldPath)
	assert.Equal(t, "new.c", renamed.Path())

	added := changes[1]
	assert.Equal(t, "", added.OldPath)
	assert.Equal(t, "added.c", added.Path())
	assert.Equal(t, []int{1, 2}, added.AddedNumbers())
	assert.Empty(t, added.Deleted)
}

func TestParseUnifiedDiff_DeletedFile(t *testing.T) {
	diff := `diff --git a/gone.c b/gone.c
deleted file mode 100644
index 3333333..0000000
--- a/gone.c
+++ /dev/null
@@ -1,2 +0,0 @@
-int a;
-int b;
`

	changes, err := ParseUnifiedDiff(diff)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "", changes[0].NewPath)
	assert.Equal(t, "gone.c", changes[0].Path())
	assert.Equal(t, []int{1, 2}, changes[0].DeletedNumbers())
}

func TestParseUnifiedDiff_NoNewlineMarker(t *testing.T) {
	diff := `diff --git a/a.txt b/a.txt
index 1111111..2222222 100644
--- a/a.txt
+++ b/a.txt
@@ -1 +1 @@
-last
\ No newline at end of file
+last line
\ No newline at end of file
`

	changes, err := ParseUnifiedDiff(diff)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, []int{1}, changes[0].DeletedNumbers())
	assert.Equal(t, []int{1}, changes[0].AddedNumbers())
}

func TestParseUnifiedDiff_Empty(t *testing.T) {
	changes, err := ParseUnifiedDiff("  \n")
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestCleanPath(t *testing.T) {
	tests := []struct {
		input  string
		expect string
	}{
		{"a/src/main.c", "src/main.c"},
		{"b/src/main.c", "src/main.c"},
		{"/dev/null", ""},
		{"", ""},
		{"plain.c", "plain.c"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expect, cleanPath(tt.input), tt.input)
	}
}
