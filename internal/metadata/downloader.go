package metadata

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-version"

	"gocxx/internal/errors"
)

const definitionAddress string = "https://api.nuget.org/v3/index.json"
const nugetName string = "microsoft.windows.sdk.win32metadata"

// DownloadMetadata fetches the newest Win32 metadata package and extracts its
// .winmd file to metadataFileName.
func DownloadMetadata(ctx context.Context, metadataFileName string) error {
	baseAddress, err := getBaseAddress(ctx)
	if err != nil {
		return err
	}

	versionsResponse, err := queryGet(ctx, fmt.Sprintf("%s%s/index.json", baseAddress, nugetName))
	if err != nil {
		return errors.Wrap(err, "failed to list metadata versions")
	}
	versions, err := parse[map[string][]string](versionsResponse)
	if err != nil {
		return errors.Wrap(err, "failed to parse metadata versions")
	}

	latest, err := latestVersion(versions["versions"])
	if err != nil {
		return err
	}

	nugetBytes, err := queryGet(ctx, fmt.Sprintf("%s%s/%s/%s.%s.nupkg", baseAddress, nugetName, latest, nugetName, latest))
	if err != nil {
		return errors.Wrapf(err, "failed to download metadata %s", latest)
	}

	bytesReader := bytes.NewReader(nugetBytes)
	nuget, err := zip.NewReader(bytesReader, int64(bytesReader.Len()))
	if err != nil {
		return errors.Wrap(err, "metadata package is not a zip archive")
	}
	for _, file := range nuget.File {
		if filepath.Ext(file.Name) != ".winmd" {
			continue
		}

		reader, err := file.Open()
		if err != nil {
			return err
		}
		defer reader.Close()

		metadataBytes, err := io.ReadAll(reader)
		if err != nil {
			return err
		}
		return os.WriteFile(metadataFileName, metadataBytes, 0644)
	}

	return errors.Newf("metadata package %s contains no .winmd file", latest)
}

// latestVersion returns the original spelling of the highest version.
func latestVersion(versionStrings []string) (string, error) {
	if len(versionStrings) == 0 {
		return "", errors.New("no metadata versions published")
	}

	orderedVersions := make([]*version.Version, len(versionStrings))
	for i, versionString := range versionStrings {
		v, err := version.NewVersion(versionString)
		if err != nil {
			return "", errors.Wrapf(err, "error parsing version: %s", versionString)
		}

		orderedVersions[i] = v
	}

	sort.Sort(version.Collection(orderedVersions))
	return orderedVersions[len(orderedVersions)-1].Original(), nil
}

func getBaseAddress(ctx context.Context) (string, error) {
	response, err := queryGet(ctx, definitionAddress)
	if err != nil {
		return "", errors.Wrap(err, "failed to query package index")
	}
	nugetIndex, err := parse[nugetIndex](response)
	if err != nil {
		return "", errors.Wrap(err, "failed to parse package index")
	}

	for _, resource := range nugetIndex.Resources {
		if strings.Contains(resource.Type, "PackageBaseAddress") {
			return resource.Id, nil
		}
	}

	return "", errors.New("package index has no PackageBaseAddress resource")
}

func parse[T interface{}](source []byte) (T, error) {
	var parsedBody T
	err := json.Unmarshal(source, &parsedBody)
	return parsedBody, err
}

func queryGet(ctx context.Context, url string) ([]byte, error) {
	client := http.Client{}
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	response, err := client.Do(request)
	if err != nil {
		return nil, err
	}

	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return nil, errors.Newf("GET %s: %s", url, response.Status)
	}

	return io.ReadAll(response.Body)
}

type nugetIndex struct {
	Resources []nugetResource `json:"resources"`
}

type nugetResource struct {
	Id   string `json:"@id"`
	Type string `json:"@type"`
}
