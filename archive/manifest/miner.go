/*
 *  MIT License
 *
 *  Copyright (c) 2024 Salim Amine BOU ARAM & Nicolas JUHEL
 *
 *  Permission is hereby granted, free of charge, to any person obtaining a copy
 *  of this software and associated documentation files (the "Software"), to deal
 *  in the Software without restriction, including without limitation the rights
 *  to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 *  copies of the Software, and to permit persons to whom the Software is
 *  furnished to do so, subject to the following conditions:
 *
 *  The above copyright notice and this permission notice shall be included in all
 *  copies or substantial portions of the Software.
 *
 *  THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 *  IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 *  FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 *  AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 *  LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 *  OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 *  SOFTWARE.
 *
 */

package manifest

import (
	"sort"
	"strconv"
	"strings"

	"github.com/sabouaram/cpscan/archive/zipstore"
	"github.com/sabouaram/cpscan/cplog"
)

const manifestPath = "META-INF/MANIFEST.MF"

const (
	defaultSpringBootClasses = "BOOT-INF/classes/"
	defaultSpringBootLib     = "BOOT-INF/lib/"
	webInfClasses            = "WEB-INF/classes/"
	webInfLib                = "WEB-INF/lib/"
	webInfLibProvided        = "WEB-INF/lib-provided/"
	plainLib                 = "lib/"
	versionsPrefix           = "META-INF/versions/"
)

var systemArchiveHints = []string{
	"Java Runtime Environment",
	"Java Platform API Specification",
}

// VisibleEntry is one classfile-bearing entry surviving multi-release
// masking and Spring-Boot/WAR prefix stripping.
type VisibleEntry struct {
	// Path is the unversioned, framework-prefix-stripped logical path.
	Path string
	// Entry is the archive entry whose data backs Path at the resolved
	// runtime version.
	Entry *zipstore.ArchiveEntry
	// Version is 8 for a base entry, or the META-INF/versions/N it came
	// from (9 <= Version <= the runtime version passed to Mine).
	Version int
}

// Mined is everything ManifestMiner extracts from one archive.
type Mined struct {
	IsSystemArchive          bool
	ClassPathHints           []string
	SpringBootClassesPrefix  string
	SpringBootLibPrefix      string
	MultiReleaseEnabled      bool
	Classes                  []VisibleEntry
	// NestedLibHints are "outer!entryPath" classpath hints for *.jar
	// entries found under a lib prefix (Spring-Boot or WAR layout).
	NestedLibHints []string
}

// Mine walks la's manifest (if any) and central directory, producing the
// classpath hints, framework layout prefixes, and the masked, version-
// resolved set of visible classfile entries.
func Mine(la *zipstore.LogicalArchive, runtimeVersion int, log cplog.Logger) (*Mined, error) {
	if log == nil {
		log = cplog.NopLogger()
	}

	attrs, err := readManifestAttributes(la, log)
	if err != nil {
		return nil, err
	}

	m := &Mined{
		SpringBootClassesPrefix: defaultSpringBootClasses,
		SpringBootLibPrefix:     defaultSpringBootLib,
	}

	if v, ok := attrs.get("Specification-Title"); ok {
		m.IsSystemArchive = m.IsSystemArchive || matchesSystemHint(v)
	}
	if v, ok := attrs.get("Implementation-Title"); ok {
		m.IsSystemArchive = m.IsSystemArchive || matchesSystemHint(v)
	}
	if v, ok := attrs.get("Class-Path"); ok {
		m.ClassPathHints = strings.Fields(v)
	}
	if v, ok := attrs.get("Spring-Boot-Classes"); ok && v != "" {
		m.SpringBootClassesPrefix = ensureTrailingSlash(v)
	}
	if v, ok := attrs.get("Spring-Boot-Lib"); ok && v != "" {
		m.SpringBootLibPrefix = ensureTrailingSlash(v)
	}
	if v, ok := attrs.get("Multi-Release"); ok {
		m.MultiReleaseEnabled = strings.EqualFold(v, "true")
	}

	versioned := classifyVersions(la, runtimeVersion, log)
	sort.SliceStable(versioned, func(i, j int) bool {
		if versioned[i].version != versioned[j].version {
			return versioned[i].version > versioned[j].version
		}
		return versioned[i].unversioned < versioned[j].unversioned
	})

	firstPass := maskByPath(versioned)

	libPrefixes := []string{m.SpringBootLibPrefix, webInfLib, webInfLibProvided, plainLib}
	classPrefixes := []string{m.SpringBootClassesPrefix, webInfClasses}

	type strippedEntry struct {
		src      unversioned
		stripped string
	}
	var classCandidates []strippedEntry
	for _, v := range firstPass {
		if strings.HasSuffix(v.unversioned, ".jar") && hasAnyPrefix(v.unversioned, libPrefixes) {
			m.NestedLibHints = append(m.NestedLibHints, la.Physical().Path()+"!"+v.unversioned)
			continue
		}
		classCandidates = append(classCandidates, strippedEntry{v, stripFrameworkPrefix(v.unversioned, classPrefixes)})
	}

	seen := make(map[string]bool, len(classCandidates))
	for _, c := range classCandidates {
		if seen[c.stripped] {
			continue
		}
		seen[c.stripped] = true
		m.Classes = append(m.Classes, VisibleEntry{Path: c.stripped, Entry: c.src.entry, Version: c.src.version})
	}

	return m, nil
}

type unversioned struct {
	unversioned string
	version     int
	entry       *zipstore.ArchiveEntry
}

func classifyVersions(la *zipstore.LogicalArchive, runtimeVersion int, log cplog.Logger) []unversioned {
	var out []unversioned

	for _, e := range la.Entries() {
		if e.Name == manifestPath {
			continue
		}

		if !strings.HasPrefix(e.Name, versionsPrefix) {
			out = append(out, unversioned{unversioned: e.Name, version: 8, entry: e})
			continue
		}

		rest := e.Name[len(versionsPrefix):]
		slash := strings.IndexByte(rest, '/')
		if slash < 0 {
			log.Log("malformed multi-release entry, ignoring: " + e.Name)
			continue
		}

		v, err := strconv.Atoi(rest[:slash])
		if err != nil {
			log.Log("non-numeric multi-release version, ignoring: " + e.Name)
			continue
		}

		remainder := rest[slash+1:]
		if strings.HasPrefix(remainder, "META-INF/") {
			// the META-INF directory itself is not versionable
			continue
		}
		if v < 9 || v > runtimeVersion {
			continue
		}

		out = append(out, unversioned{unversioned: remainder, version: v, entry: e})
	}

	return out
}

func maskByPath(in []unversioned) []unversioned {
	seen := make(map[string]bool, len(in))
	out := make([]unversioned, 0, len(in))
	for _, v := range in {
		if seen[v.unversioned] {
			continue
		}
		seen[v.unversioned] = true
		out = append(out, v)
	}
	return out
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func stripFrameworkPrefix(s string, prefixes []string) string {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(s, p) {
			return s[len(p):]
		}
	}
	return s
}

func matchesSystemHint(value string) bool {
	for _, hint := range systemArchiveHints {
		if strings.Contains(value, hint) {
			return true
		}
	}
	return false
}

func ensureTrailingSlash(s string) string {
	if strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}

func readManifestAttributes(la *zipstore.LogicalArchive, log cplog.Logger) (attributes, error) {
	for _, e := range la.Entries() {
		if e.Name != manifestPath {
			continue
		}

		s, err := e.Open()
		if err != nil {
			log.LogErr("failed to open manifest, proceeding without one", err)
			return attributes{}, nil
		}
		defer s.Close()

		attrs, err := parseAttributes(s)
		if err != nil {
			log.LogErr("failed to parse manifest, proceeding without one", err)
			return attributes{}, nil
		}
		return attrs, nil
	}

	return attributes{}, nil
}
